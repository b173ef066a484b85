package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/phasehull/pkg/chempot"
)

// chempotCommand creates the chempot command.
func (c *CLI) chempotCommand() *cobra.Command {
	var (
		engine engineFlags
		input  inputFlags
		out    outputFlags
		axes   string
	)

	cmd := &cobra.Command{
		Use:   "chempot <dataset.json>",
		Short: "Project the hull into chemical-potential space",
		Long: `Compute the chemical-potential polytope of a dataset with at least
three components. Each stable facet becomes a vertex; facets sharing a
ridge are joined by an edge.

--axes picks the three plotted potentials by index or component name
(default: the first three components).`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeJSONFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := input.load(cmd, args[0])
			if err != nil {
				return err
			}
			opts := c.options(engine)
			if opts.Axes, err = parseAxes(axes, ds.Components); err != nil {
				return err
			}

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			res, err := runner.ChemPot(ctx, ds, opts)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd.OutOrStdout(), res, res.Document, out); err != nil {
				return err
			}
			if out.json {
				return nil
			}
			printPolytope(cmd.OutOrStdout(), ds.Components, res.Document.ChemPot)
			printStats(res.Stats.Entries, res.Stats.Stable, res.Stats.Facets, res.CacheHit)
			return nil
		},
	}

	engine.register(cmd)
	input.register(cmd)
	out.register(cmd)
	cmd.Flags().StringVar(&axes, "axes", "", "three potentials to keep, e.g. 0,1,2 or Fe,O,Li")

	return cmd
}

func printPolytope(w io.Writer, components []string, p *chempot.Polytope) {
	if p == nil {
		return
	}
	headers := []string{"Facet"}
	for _, a := range p.Axes {
		name := fmt.Sprintf("x%d", a)
		if a < len(components) {
			name = components[a]
		}
		headers = append(headers, "μ "+name)
	}
	headers = append(headers, "Phases")

	rows := make([][]string, 0, len(p.Vertices))
	for _, v := range p.Vertices {
		row := []string{fmt.Sprint(v.Facet)}
		for _, mu := range v.Mu {
			row = append(row, formatFloat(mu))
		}
		rows = append(rows, append(row, strings.Join(v.Labels, ", ")))
	}
	fmt.Fprintln(w, StyleTitle.Render("Chemical potentials"))
	fmt.Fprintln(w, renderTable(headers, rows, 1, 2, 3))
	fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("  %d vertices · %d edges", len(p.Vertices), len(p.Edges))))
}
