package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	phio "github.com/matzehuels/phasehull/pkg/io"
	"github.com/matzehuels/phasehull/pkg/phase"
	"github.com/matzehuels/phasehull/pkg/pipeline"
)

// sweepCommand creates the sweep command.
func (c *CLI) sweepCommand() *cobra.Command {
	var (
		engine engineFlags
		out    outputFlags
		temps  string
	)

	cmd := &cobra.Command{
		Use:   "sweep <series.json>",
		Short: "Rebuild the hull across a temperature series",
		Long: `Rebuild the hull at each temperature of a series and report the
invariant points where stable phases appear or vanish.

Temperatures given with --temps are interpolated between samples. Without
--temps every sampled temperature is used.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeJSONFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := parseFloats(temps)
			if err != nil {
				return err
			}
			s, err := phio.ImportSeries(args[0])
			if err != nil {
				return err
			}
			opts := c.options(engine)
			opts.Temperatures = ts
			return c.runSweep(cmd, s, opts, out)
		},
	}

	engine.register(cmd)
	out.register(cmd)
	cmd.Flags().StringVar(&temps, "temps", "", "comma-separated temperatures to evaluate")

	return cmd
}

func (c *CLI) runSweep(cmd *cobra.Command, s *phio.Series, opts pipeline.Options, out outputFlags) error {
	ctx := cmd.Context()
	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinner(ctx, cmd.ErrOrStderr(), fmt.Sprintf("Sweeping %d samples...", len(s.Samples)))
	spinner.Start()
	res, err := runner.Sweep(ctx, s, opts)
	if err != nil {
		spinner.StopWithError("Sweep failed")
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Swept %d temperatures", len(res.Slices)))

	if out.output != "" {
		if err := exportJSON(out.output, res); err != nil {
			return err
		}
		printFile(out.output)
	}
	if out.json {
		return writeJSON(cmd.OutOrStdout(), res)
	}

	w := cmd.OutOrStdout()
	rows := make([][]string, 0, len(res.Slices))
	for _, doc := range res.Slices {
		t := ""
		if doc.Temperature != nil {
			t = formatFloat(*doc.Temperature)
		}
		labels := make([]string, len(doc.Stable))
		for i, e := range doc.Stable {
			labels[i] = e.Label
		}
		rows = append(rows, []string{t, strings.Join(labels, ", ")})
	}
	fmt.Fprintln(w, StyleTitle.Render("Slices"))
	fmt.Fprintln(w, renderTable([]string{"T", "Stable phases"}, rows, 0))

	printSpecialPoints(w, s.Components, res.SpecialPoints)
	printStats(res.Stats.Entries, res.Stats.Stable, res.Stats.Facets, res.CacheHit)
	return nil
}

func printSpecialPoints(w io.Writer, components []string, points []phase.SpecialPoint) {
	if len(points) == 0 {
		fmt.Fprintln(w, StyleDim.Render("  no invariant points"))
		return
	}
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			string(p.Kind),
			formatFloat(p.Temperature),
			formatComposition(components, p.Composition),
			strings.Join(p.Labels, ", "),
		})
	}
	fmt.Fprintln(w, StyleTitle.Render("Invariant points"))
	fmt.Fprintln(w, renderTable([]string{"Kind", "T", "Composition", "Phases"}, rows, 1))
}
