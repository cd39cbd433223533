package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/robbyt/go-counterview/bmp"
)

// bmpCmd prints the headers of a bitmap file and the first pixels of its top
// row.
func bmpCmd() *cobra.Command {
	var pixels int

	cmd := &cobra.Command{
		Use:   "bmp <file>",
		Short: "Print the header and first pixels of a BMP file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			f, err := bmp.Open(file)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			h, _ := f.Header()

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(h); err != nil {
				return err
			}
			if pixels <= 0 {
				return nil
			}

			data, err := f.PixelData()
			if err != nil {
				return err
			}
			if int64(len(data)) < h.RowSize() {
				return nil
			}
			row := data[:h.RowSize()]
			for x := range min(pixels, int(h.Width)) {
				r, g, b, err := bmp.RGB(row, h.BitCount, x)
				if errors.Is(err, bmp.ErrUnsupported) {
					return err
				}
				if err != nil {
					break
				}
				fmt.Fprintf(out, "R: %d, G: %d, B: %d\n", r, g, b)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&pixels, "pixels", 10, "number of pixels of the top row to print, 0 for none")
	return cmd
}
