package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	perr "github.com/matzehuels/phasehull/pkg/errors"
	phio "github.com/matzehuels/phasehull/pkg/io"
	"github.com/matzehuels/phasehull/pkg/pipeline"
)

// inputFlags select a dataset file, or one temperature of a series file.
type inputFlags struct {
	temperature float64
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.temperature, "temperature", 0, "read the file as a series and analyze this temperature")
}

// load reads path as a dataset, or as a series sliced at --temperature.
func (f *inputFlags) load(cmd *cobra.Command, path string) (*phio.Dataset, error) {
	if !cmd.Flags().Changed("temperature") {
		return phio.ImportDataset(path)
	}
	s, err := phio.ImportSeries(path)
	if err != nil {
		return nil, err
	}
	return pipeline.SeriesDataset(s, f.temperature)
}

// outputFlags control where results go.
type outputFlags struct {
	output string
	json   bool
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the result document to a JSON file")
	cmd.Flags().BoolVar(&f.json, "json", false, "print the full result as JSON instead of tables")
}

// hullCommand creates the hull command.
func (c *CLI) hullCommand() *cobra.Command {
	var (
		engine engineFlags
		input  inputFlags
		out    outputFlags
	)

	cmd := &cobra.Command{
		Use:   "hull <dataset.json>",
		Short: "Compute stable phases and the phase diagram of a dataset",
		Long: `Compute the lower convex hull of a dataset.

Stable entries are listed first. Every other entry is reported with its
energy above the hull and the stable phases it decomposes into.

With --temperature the file is read as a series and the slice at that
temperature is analyzed.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeJSONFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := input.load(cmd, args[0])
			if err != nil {
				return err
			}
			return c.runHull(cmd, ds, c.options(engine), out)
		},
	}

	engine.register(cmd)
	input.register(cmd)
	out.register(cmd)

	return cmd
}

func (c *CLI) runHull(cmd *cobra.Command, ds *phio.Dataset, opts pipeline.Options, out outputFlags) error {
	ctx := cmd.Context()
	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	res, err := runner.Analyze(ctx, ds, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Built hull of %d entries", res.Stats.Entries))

	if err := writeOutput(cmd.OutOrStdout(), res, res.Document, out); err != nil {
		return err
	}
	if out.json {
		return nil
	}

	w := cmd.OutOrStdout()
	printDocument(w, res.Document)
	printStats(res.Stats.Entries, res.Stats.Stable, res.Stats.Facets, res.CacheHit)
	return nil
}

// writeOutput exports doc to the -o file and prints v as JSON for --json.
func writeOutput(w io.Writer, v any, doc *phio.Document, out outputFlags) error {
	if out.output != "" {
		if err := phio.ExportDocument(doc, out.output); err != nil {
			return err
		}
		printFile(out.output)
	}
	if out.json {
		return writeJSON(w, v)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exportJSON writes v as indented JSON to path.
func exportJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return perr.Wrap(perr.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer f.Close()
	return writeJSON(f, v)
}

// printDocument renders the stable and unstable tables of doc.
func printDocument(w io.Writer, doc *phio.Document) {
	if doc.Temperature != nil {
		fmt.Fprintln(w, StyleTitle.Render(fmt.Sprintf("T = %s", formatFloat(*doc.Temperature))))
	}

	rows := make([][]string, 0, len(doc.Stable))
	for _, e := range doc.Stable {
		rows = append(rows, []string{e.Label, formatComposition(doc.Components, e.Composition), formatFloat(e.Energy)})
	}
	fmt.Fprintln(w, StyleTitle.Render("Stable"))
	fmt.Fprintln(w, renderTable([]string{"Phase", "Composition", "Energy"}, rows, 2))

	if len(doc.Unstable) > 0 {
		rows = rows[:0]
		for _, e := range doc.Unstable {
			rows = append(rows, []string{
				e.Label,
				formatComposition(doc.Components, e.Composition),
				formatFloat(e.EAboveHull),
				formatProducts(e.Decomposition),
			})
		}
		fmt.Fprintln(w, StyleTitle.Render("Unstable"))
		fmt.Fprintln(w, renderTable([]string{"Phase", "Composition", "E above hull", "Decomposes to"}, rows, 2))
	}

	if d := doc.Diagram; d != nil && len(d.TieLines) > 0 {
		fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("  %d regions · %d tie-lines", len(d.Regions), len(d.TieLines))))
	}
	for _, msg := range doc.Warnings {
		printWarning("%s", msg)
	}
}

func formatProducts(ps []phio.Product) string {
	s := ""
	for i, p := range ps {
		if i > 0 {
			s += " + "
		}
		s += formatFloat(p.Fraction) + " " + p.Label
	}
	return s
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', 6, 64)
}
