package server

import (
	"bytes"
	"embed"
	"encoding/json"
	stderrors "errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/flowmap/pkg/apps"
	"github.com/matzehuels/flowmap/pkg/buildinfo"
	"github.com/matzehuels/flowmap/pkg/errors"
	flowio "github.com/matzehuels/flowmap/pkg/io"
	"github.com/matzehuels/flowmap/pkg/observability"
	"github.com/matzehuels/flowmap/pkg/pipeline"
	"github.com/matzehuels/flowmap/pkg/sheet"
)

//go:embed templates/index.html.tmpl
var templates embed.FS

var indexTmpl = template.Must(template.ParseFS(templates, "templates/index.html.tmpl"))

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
}

// =============================================================================
// Health & Page
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"build": buildinfo.Get(),
	})
}

type indexData struct {
	Version string
	View    string
	Full    string
	Simple  string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	opts := s.options()
	_ = opts.ValidateAndSetDefaults()

	data := indexData{
		Version: buildinfo.Get().Version,
		View:    opts.Render.View,
		Full:    viewPath(pipeline.ViewFull, pipeline.FormatSVG),
		Simple:  viewPath(pipeline.ViewSimple, pipeline.FormatSVG),
	}

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, data); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render page"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// =============================================================================
// Graph API
// =============================================================================

func (s *Server) buildGraph(r *http.Request) (apps.FilteredGraph, *apps.Recorder, error) {
	opts := s.options()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return apps.FilteredGraph{}, nil, err
	}
	ds, err := pipeline.Load(opts)
	if err != nil {
		return apps.FilteredGraph{}, nil, err
	}
	g, rec := pipeline.BuildGraph(r.Context(), ds, opts)
	return g, rec, nil
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	g, _, err := s.buildGraph(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := flowio.WriteGraph(&buf, g); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

// diagnosticsResponse summarizes what the reference filter dropped.
type diagnosticsResponse struct {
	Nodes        int          `json:"nodes"`
	Edges        int          `json:"edges"`
	DroppedNodes int          `json:"dropped_nodes"`
	DroppedEdges int          `json:"dropped_edges"`
	Events       []apps.Event `json:"events"`
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	g, rec, err := s.buildGraph(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	events := append(rec.Of(apps.EventEdgeDropped), rec.Of(apps.EventNodeDropped)...)
	if events == nil {
		events = []apps.Event{}
	}
	writeJSON(w, http.StatusOK, diagnosticsResponse{
		Nodes:        g.NodeCount(),
		Edges:        g.EdgeCount(),
		DroppedNodes: rec.DroppedNodes(),
		DroppedEdges: rec.DroppedEdges(),
		Events:       events,
	})
}

// =============================================================================
// Views
// =============================================================================

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	view, format, ok := strings.Cut(chi.URLParam(r, "file"), ".")
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidFormat, "view path needs a format extension, e.g. /views/full.svg"))
		return
	}
	if err := errors.ValidateFormat(view, format); err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := s.options()
	opts.Render.View = view
	opts.Render.Formats = []string{format}
	for _, dim := range []struct {
		name string
		dst  *int
	}{{"width", &opts.Render.Width}, {"height", &opts.Render.Height}} {
		v := r.URL.Query().Get(dim.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "%s must be an integer, got %q", dim.name, v))
			return
		}
		*dim.dst = n
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", contentTypes[format])
	h.Set("Cache-Control", "no-store")
	h.Set("X-Flowmap-Cache", cacheState(res.CacheInfo.RenderHit))
	if res.View != nil {
		h.Set("X-Flowmap-Activation", res.View.ID)
	}
	_, _ = w.Write(res.Artifacts[format])
}

func viewPath(view, format string) string { return "/views/" + view + "." + format }

func cacheState(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

// =============================================================================
// Spreadsheet Conversion
// =============================================================================

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	limit := s.options().Server.MaxUpload
	if limit <= 0 {
		limit = 10 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.writeErrorStatus(w, r, http.StatusRequestEntityTooLarge,
				errors.New(errors.ErrCodeInvalidInput, "upload exceeds %d bytes", limit))
			return
		}
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse upload"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "missing form field \"file\""))
		return
	}
	defer file.Close()

	if err := errors.ValidateUploadFilename(header.Filename); err != nil {
		s.writeError(w, r, err)
		return
	}
	key := r.FormValue("key")
	if key != "" {
		if err := errors.ValidateColumnName(key); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	table, err := sheet.Read(header.Filename, file, sheet.Options{
		KeyColumn: key,
		Sheet:     r.FormValue("sheet"),
		Logger:    s.logger,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := table.WriteJSON(&buf); err != nil {
		s.writeError(w, r, err)
		return
	}

	id := uuid.NewString()
	s.logger.Info("converted upload",
		"upload", id,
		"file", header.Filename,
		"records", table.Len(),
		"skipped", len(table.Skipped))

	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("X-Upload-ID", id)
	h.Set("X-Skipped-Rows", strconv.Itoa(len(table.Skipped)))
	_, _ = w.Write(buf.Bytes())
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeErrorStatus(w, r, errors.HTTPStatus(err), err)
}

func (s *Server) writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	observability.HTTP().OnError(r.Context(), r.Method, routePattern(r), err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "err", err)
	} else {
		s.logger.Warn("request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, errorResponse{
		Error:     errors.UserMessage(err),
		Code:      string(errors.GetCode(err)),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
