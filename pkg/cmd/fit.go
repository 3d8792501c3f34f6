package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/c9s/bandbot/pkg/analysis"
	"github.com/c9s/bandbot/pkg/strategy/resistance"
	"github.com/c9s/bandbot/pkg/util"
)

func init() {
	FitCmd.Flags().String("file", "", "csv file of elapsed,price rows")
	FitCmd.Flags().Float64("deviations", 1.0, "band width in standard deviations")
	FitCmd.Flags().String("chart", "", "write a png chart of the samples and the band")
	RootCmd.AddCommand(FitCmd)
}

// readSamples reads the elapsed,price rows of r, a header row is skipped
func readSamples(r io.Reader) (*analysis.SampleBuffer, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	var elapsed []uint64
	var prices []float64
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		t, err := strconv.ParseUint(strings.TrimSpace(record[0]), 10, 64)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, errors.Wrapf(err, "line %d: invalid elapsed time", line)
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: invalid price", line)
		}

		elapsed = append(elapsed, t)
		prices = append(prices, price)
	}

	return analysis.NewSampleBufferFrom(elapsed, prices)
}

func renderFitTable(w io.Writer, buf *analysis.SampleBuffer, lines analysis.RegressionLines) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("resistance band")
	lastElapsed, _, _ := buf.Last()
	t.AppendHeader(table.Row{"Line", "Alpha", "Beta", "At 0", fmt.Sprintf("At %d", lastElapsed)})

	last := float64(lastElapsed)
	t.AppendRows([]table.Row{
		{"upper", util.FormatFloat(lines.UpperAlpha, 8), util.FormatFloat(lines.Beta, 8), util.FormatFloat(lines.UpperAt(0), 4), util.FormatFloat(lines.UpperAt(last), 4)},
		{"mean", util.FormatFloat(lines.Alpha, 8), util.FormatFloat(lines.Beta, 8), util.FormatFloat(lines.At(0), 4), util.FormatFloat(lines.At(last), 4)},
		{"lower", util.FormatFloat(lines.LowerAlpha, 8), util.FormatFloat(lines.Beta, 8), util.FormatFloat(lines.LowerAt(0), 4), util.FormatFloat(lines.LowerAt(last), 4)},
	})
	t.AppendFooter(table.Row{"width", util.FormatFloat(lines.UpperAlpha-lines.Alpha, 8), "samples", buf.Len(), ""})
	t.Render()
}

// go run ./cmd/bandbot fit --file samples.csv --deviations 1.0 --chart band.png
var FitCmd = &cobra.Command{
	Use:          "fit --file [samples.csv]",
	Short:        "fit a resistance band over recorded samples",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := cmd.Flags().GetString("file")
		if err != nil {
			return err
		}

		if file == "" {
			return errors.New("--file option is required")
		}

		deviations, err := cmd.Flags().GetFloat64("deviations")
		if err != nil {
			return err
		}

		chartFile, err := cmd.Flags().GetString("chart")
		if err != nil {
			return err
		}

		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()

		buf, err := readSamples(f)
		if err != nil {
			return errors.Wrapf(err, "can not read samples from %s", file)
		}

		lines, err := analysis.Fit(buf, deviations)
		if err != nil {
			return err
		}

		renderFitTable(cmd.OutOrStdout(), buf, lines)

		if chartFile != "" {
			out, err := resistance.RenderBand(file, buf, lines)
			if err != nil {
				return err
			}

			if err := os.WriteFile(chartFile, out.Bytes(), 0644); err != nil {
				return err
			}
		}

		return nil
	},
}
