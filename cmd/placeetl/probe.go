package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"placeetl/internal/config"
	"placeetl/internal/datasource"
	"placeetl/internal/probe"
)

type probeOptions struct {
	sample     int
	comma      string
	lazyQuotes bool
	emitConfig bool
	asJSON     bool
}

func newProbeCommand(stdout, stderr io.Writer) *cobra.Command {
	var o probeOptions

	cmd := &cobra.Command{
		Use:   "probe [flags] [files...]",
		Short: "Sample dumps and report what a load would see",
		Long: `
Reads the first --sample lines of each input, normalizes them and reports
the header generation, the tile/rectangle mix, rejected lines and how many
distinct canvas pixels the sample touches. With --emit-config a pipeline
file for the probed inputs is printed instead.
`,
		Args: cobra.ArbitraryArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"-"}
			}
			parser := config.Options{}
			if c.Flags().Changed("comma") {
				parser["comma"] = o.comma
			}
			if c.Flags().Changed("lazy-quotes") {
				parser["lazy_quotes"] = o.lazyQuotes
			}

			reports := make([]probe.Report, 0, len(args))
			for _, loc := range args {
				rep, err := probeOne(c, loc, o.sample, parser)
				if err != nil {
					return err
				}
				reports = append(reports, rep)
			}

			switch {
			case o.emitConfig:
				out, err := yaml.Marshal(probe.SuggestConfig(reports, parser))
				if err != nil {
					return fmt.Errorf("encode config: %w", err)
				}
				_, err = stdout.Write(out)
				return err
			case o.asJSON:
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(reports)
			default:
				for _, r := range reports {
					printReport(stdout, r)
				}
				return nil
			}
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&o.sample, "sample", 10000, "data lines to read per input; 0 reads everything")
	flags.StringVar(&o.comma, "comma", ",", "field separator")
	flags.BoolVar(&o.lazyQuotes, "lazy-quotes", false, "accept bare quotes inside fields")
	flags.BoolVar(&o.emitConfig, "emit-config", false, "print a pipeline file for the inputs")
	flags.BoolVar(&o.asJSON, "json", false, "print reports as JSON")

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}

func probeOne(c *cobra.Command, loc string, sample int, parser config.Options) (probe.Report, error) {
	rc, err := datasource.Open(c.Context(), loc, nil)
	if err != nil {
		return probe.Report{}, fmt.Errorf("open input %s: %w", loc, err)
	}
	defer rc.Close()

	rep, err := probe.Probe(c.Context(), rc, probe.Options{Location: loc, Sample: sample, Parser: parser})
	if err != nil {
		return rep, fmt.Errorf("probe %s: %w", loc, err)
	}
	return rep, nil
}

func printReport(w io.Writer, r probe.Report) {
	fmt.Fprintf(w, "%s: generation %s\n", r.Location, r.Generation)
	fmt.Fprintf(w, "  lines       %s (normalized %s, rejected %s)\n",
		humanize.Comma(r.Lines), humanize.Comma(r.Normalized), humanize.Comma(r.Rejected))
	fmt.Fprintf(w, "  shapes      %s tiles, %s rectangles\n", humanize.Comma(r.Tiles), humanize.Comma(r.Rectangles))
	fmt.Fprintf(w, "  pixels      %s distinct\n", humanize.Comma(int64(r.DistinctPixels)))
	if r.LastTimestamp > 0 {
		fmt.Fprintf(w, "  timestamps  %d .. %d\n", r.FirstTimestamp, r.LastTimestamp)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  ! %s\n", e)
	}
}
