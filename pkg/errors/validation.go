package errors

import (
	"path/filepath"
	"slices"
	"strings"
	"unicode"
)

// Views and the formats each one can be rendered in.
var viewFormats = map[string][]string{
	"full":   {"svg", "png", "pdf", "json"},
	"simple": {"svg", "png", "pdf", "dot"},
}

// Accepted spreadsheet upload extensions.
var sheetExtensions = []string{".xlsx", ".xlsm", ".csv"}

// Limits for rendered artifact dimensions, in pixels.
const (
	MinDimension = 64
	MaxDimension = 8192
)

// ValidateView checks that name is a known view.
func ValidateView(name string) error {
	if _, ok := viewFormats[name]; !ok {
		return New(ErrCodeInvalidView, "unknown view %q (want full or simple)", name)
	}
	return nil
}

// ValidateFormat checks that view can be rendered as format.
func ValidateFormat(view, format string) error {
	if err := ValidateView(view); err != nil {
		return err
	}
	if !slices.Contains(viewFormats[view], format) {
		return New(ErrCodeInvalidFormat, "view %s cannot be rendered as %q (want one of %s)",
			view, format, strings.Join(viewFormats[view], ", "))
	}
	return nil
}

// ValidateDimensions checks an artifact size. Zero means "use the default"
// and is accepted.
func ValidateDimensions(width, height int) error {
	for _, d := range []struct {
		name string
		v    int
	}{{"width", width}, {"height", height}} {
		if d.v == 0 {
			continue
		}
		if d.v < MinDimension || d.v > MaxDimension {
			return New(ErrCodeInvalidInput, "%s %d out of range [%d, %d]", d.name, d.v, MinDimension, MaxDimension)
		}
	}
	return nil
}

// ValidateUploadFilename validates a spreadsheet upload name. It must be a
// plain basename with a supported extension.
func ValidateUploadFilename(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "upload filename cannot be empty")
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return New(ErrCodeInvalidPath, "upload filename cannot contain path components")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "upload filename contains control characters")
		}
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !slices.Contains(sheetExtensions, ext) {
		return New(ErrCodeUnsupported, "unsupported spreadsheet type %q (want %s)", ext, strings.Join(sheetExtensions, ", "))
	}
	return nil
}

// ValidateColumnName validates a spreadsheet key column name.
func ValidateColumnName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "key column cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "key column too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "key column contains invalid control characters")
		}
	}
	return nil
}
