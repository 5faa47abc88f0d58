package cli

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tsawler/tablevote"
	"github.com/tsawler/tablevote/consensus"
	"github.com/tsawler/tablevote/diagnostics"
	"github.com/tsawler/tablevote/model"
)

var (
	extractFlags     voteFlags
	extractDetectors []string
	extractFormat    string
)

var extractCmd = &cobra.Command{
	Use:   "extract <regions.json>",
	Short: "Detect boundaries and extract tables",
	Long: `Runs the boundary detectors on each region, combines their hypotheses
with any supplied in the input, and prints the resulting tables.
Pass "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractFlags.register(extractCmd)
	extractCmd.Flags().StringArrayVarP(&extractDetectors, "detector", "d", nil,
		"detector to run (repeatable; default: all registered, or none when hypotheses are supplied)")
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "json", "output format: json, markdown, csv or text")
	rootCmd.AddCommand(extractCmd)
}

// extracted is the outcome for one region.
type extracted struct {
	Table    *model.Table        `json:"table"`
	Warnings []tablevote.Warning `json:"warnings,omitempty"`
	Trace    *consensus.Trace    `json:"trace,omitempty"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	format := strings.ToLower(extractFormat)
	switch format {
	case "json", "markdown", "csv", "text":
	default:
		return fmt.Errorf("unknown format %q (want json, markdown, csv or text)", extractFormat)
	}

	regions, err := readRegions(cmd, args[0])
	if err != nil {
		return err
	}

	multipliers, err := extractFlags.multipliers()
	if err != nil {
		return err
	}

	store, err := extractFlags.openStore()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	// One base extractor shared by every region
	base := tablevote.For(model.NewRegion("", model.BBox{})).Multipliers(multipliers).Context(ctx)
	if len(extractDetectors) > 0 {
		base = base.Detectors(extractDetectors...)
	}
	if extractFlags.trace {
		base = base.Trace()
	}

	results, err := extractAll(ctx, regions, base, store, extractFlags.workers, extractFlags.trace)
	if err != nil {
		return err
	}

	for _, r := range results {
		for _, w := range r.Warnings {
			cmd.PrintErrln("warning:", w)
		}
	}

	return writeTables(cmd, format, results)
}

// extractAll runs the extractor over every region concurrently. Results are
// in input order. Traces are kept in the results only when trace is set; a
// store alone records them without printing them.
func extractAll(ctx context.Context, regions []regionInput, base *tablevote.Extractor, store *diagnostics.Store, workers int, trace bool) ([]extracted, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]extracted, len(regions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range regions {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			region := regions[i].Region
			ext := base.On(&region).Hypotheses(regions[i].Hypotheses...)
			if store != nil {
				ext = ext.Sink(store)
			}

			extraction, warnings, err := ext.Extract()
			if err != nil {
				return fmt.Errorf("region %q: %w", region.ID, err)
			}

			results[i] = extracted{Table: extraction.Table, Warnings: warnings}
			if trace {
				results[i].Trace = extraction.Result.Trace
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func writeTables(cmd *cobra.Command, format string, results []extracted) error {
	switch format {
	case "markdown":
		for i, r := range results {
			if i > 0 {
				cmd.Println()
			}
			cmd.Printf("## %s\n\n", r.Table.RegionID)
			cmd.Print(r.Table.ToMarkdown())
		}
		return nil
	case "csv":
		for i, r := range results {
			if i > 0 {
				cmd.Println()
			}
			cmd.Print(r.Table.ToCSV())
		}
		return nil
	case "text":
		for i, r := range results {
			if i > 0 {
				cmd.Println()
			}
			cmd.Print(r.Table.GetText())
		}
		return nil
	default:
		return writeJSON(cmd, results)
	}
}
