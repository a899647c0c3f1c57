package sheet

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/flowmap/pkg/errors"
)

// ReadXLSX converts an Excel workbook.
func ReadXLSX(r io.Reader, opts Options) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "open workbook")
	}
	defer f.Close()

	name := opts.Sheet
	if name == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return &Table{Rows: map[string]Record{}}, nil
		}
		name = sheets[0]
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read sheet %q", name)
	}
	return fromRows(rows, opts)
}
