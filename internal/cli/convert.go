package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/pkg/errors"
	flowio "github.com/matzehuels/flowmap/pkg/io"
	"github.com/matzehuels/flowmap/pkg/sheet"
)

// convertCommand turns a spreadsheet export into keyed JSON records.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		output string
		key    string
		name   string
	)

	cmd := &cobra.Command{
		Use:   "convert <file.xlsx|file.csv>",
		Short: "Convert a spreadsheet into JSON records keyed by reference",
		Long: `Convert a spreadsheet into JSON records keyed by reference.

The first row of the first sheet is the header. Every other row becomes an
object of header to cell value, keyed by its Reference column. When two rows
share a reference the later row wins. Rows without a reference are skipped
and reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateColumnName(key); err != nil {
				return err
			}
			input := args[0]
			table, err := sheet.Convert(input, sheet.Options{KeyColumn: key, Sheet: name, Logger: loggerFromContext(cmd.Context())})
			if err != nil {
				return err
			}

			out, err := openOutput(output)
			if err != nil {
				return err
			}
			defer out.Close()
			if err := table.WriteJSON(out); err != nil {
				return fmt.Errorf("write json: %w", err)
			}

			for _, s := range table.Skipped {
				printWarning("row %d skipped: %s", s.Row, s.Reason)
			}
			if output != "" {
				printSuccess("Converted %d records", table.Len())
				printFile(output)
				if looksLikeDataset(output) {
					printNewline()
					printNextStep("Render", appName+" render "+filepath.Dir(output))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&key, "key", "k", sheet.DefaultKeyColumn, "column whose value keys each record")
	cmd.Flags().StringVar(&name, "sheet", "", "worksheet to read (default: the first)")

	return cmd
}

// looksLikeDataset reports whether path is one of the dataset file names.
func looksLikeDataset(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	return base == flowio.ApplicationsFile || base == flowio.FlowsFile
}
