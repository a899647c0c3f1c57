package layout

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/flowmap/pkg/apps"
	"github.com/matzehuels/flowmap/pkg/forcegraph"
)

// parsePlain reads node positions from Graphviz "plain" output:
//
//	graph scale width height
//	node name x y width height label style shape color fillcolor
//	edge tail head n x1 y1 ... xn yn [label xl yl] style color
//	stop
//
// Coordinates are converted from inches to points, the y axis is flipped to
// screen orientation and the result is centered on the origin.
func parsePlain(data []byte) (Positions, error) {
	pos := Positions{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		fields, err := splitPlain(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("plain line %d: %w", line, err)
		}
		if len(fields) == 0 || fields[0] != "node" {
			continue
		}
		if len(fields) < 4 {
			return nil, fmt.Errorf("plain line %d: short node record", line)
		}
		x, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("plain line %d: x: %w", line, err)
		}
		y, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("plain line %d: y: %w", line, err)
		}
		pos[apps.NodeID(fields[1])] = forcegraph.Point{X: x * pointsPerInch, Y: -y * pointsPerInch}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	center(pos)
	return pos, nil
}

// splitPlain splits a plain-format line on spaces, honoring double-quoted
// fields with backslash escapes.
func splitPlain(s string) ([]string, error) {
	var (
		out []string
		cur strings.Builder
	)
	inQuote, quoted := false, false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case inQuote && ch == '\\' && i+1 < len(s):
			i++
			cur.WriteByte(s[i])
		case ch == '"':
			inQuote = !inQuote
			quoted = true
		case !inQuote && ch == ' ':
			if cur.Len() > 0 || quoted {
				out = append(out, cur.String())
				cur.Reset()
				quoted = false
			}
		default:
			cur.WriteByte(ch)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	if cur.Len() > 0 || quoted {
		out = append(out, cur.String())
	}
	return out, nil
}

func center(pos Positions) {
	if len(pos) == 0 {
		return
	}
	var cx, cy float64
	for _, p := range pos {
		cx += p.X
		cy += p.Y
	}
	cx /= float64(len(pos))
	cy /= float64(len(pos))
	for id, p := range pos {
		pos[id] = forcegraph.Point{X: p.X - cx, Y: p.Y - cy}
	}
}
