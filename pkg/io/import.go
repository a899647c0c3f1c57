package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/matzehuels/flowmap/pkg/apps"
	"github.com/matzehuels/flowmap/pkg/errors"
)

// Default dataset file names inside a directory.
const (
	ApplicationsFile = "application.json"
	FlowsFile        = "flow.json"
)

// Dataset is a loaded pair of record lists.
type Dataset struct {
	Applications []apps.ApplicationRecord
	Flows        []apps.FlowRecord
}

// ReadApplications decodes application records from r.
func ReadApplications(r io.Reader) ([]apps.ApplicationRecord, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	out := make([]apps.ApplicationRecord, 0, len(rows))
	for i, row := range rows {
		group, err := row.int("Group")
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "application %d: Group", i)
		}
		out = append(out, apps.ApplicationRecord{
			Name:             row.str("Name"),
			Version:          row.str("Version"),
			ArchitectureType: row.str("Architecture Type"),
			Group:            group,
		})
	}
	return out, nil
}

// ReadFlows decodes flow records from r.
func ReadFlows(r io.Reader) ([]apps.FlowRecord, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	out := make([]apps.FlowRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, apps.FlowRecord{
			SourceApplication: row.str("Source Application"),
			TargetApplication: row.str("Target Application"),
			Label:             row.str("Label"),
		})
	}
	return out, nil
}

// ImportDataset reads the application and flow files at the given paths.
func ImportDataset(appsPath, flowsPath string) (Dataset, error) {
	var ds Dataset
	var err error
	if ds.Applications, err = importFile(appsPath, ReadApplications); err != nil {
		return Dataset{}, err
	}
	if ds.Flows, err = importFile(flowsPath, ReadFlows); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

// LoadDir reads application.json and flow.json from dir.
func LoadDir(dir string) (Dataset, error) {
	return ImportDataset(filepath.Join(dir, ApplicationsFile), filepath.Join(dir, FlowsFile))
}

func importFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	recs, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// =============================================================================
// Rows
// =============================================================================

type row map[string]json.RawMessage

// readRows accepts a JSON array of objects or an object of objects. Object
// members are returned in document order.
func readRows(r io.Reader) ([]row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "empty document")
	}

	switch data[0] {
	case '[':
		var rows []row
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode")
		}
		return rows, nil
	case '{':
		return readKeyedRows(data)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "expected a JSON array or object")
	}
}

func readKeyedRows(data []byte) ([]row, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode")
	}
	var rows []row
	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode")
		}
		var rw row
		if err := dec.Decode(&rw); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %v", key)
		}
		rows = append(rows, rw)
	}
	return rows, nil
}

// str returns a scalar field as text. Missing and null fields are empty.
func (r row) str(key string) string {
	raw, ok := r[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) || len(raw) == 0 || raw[0] == '{' || raw[0] == '[' {
		return ""
	}
	return string(raw)
}

func (r row) int(key string) (int, error) {
	s := r.str(key)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int(f), nil
}
