package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the phasehull CLI against os.Args and returns the first
// command error.
//
// Logging:
//   - Default: the level from the config file (info unless set)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via loggerFromContext.
//
// Example:
//
//	func main() {
//	    if err := cli.Execute(context.Background()); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Execute(ctx context.Context) error {
	c := New(os.Stderr, LogInfo)
	return c.execute(ctx, c.RootCommand())
}

// execute runs root and stops the profiler whether or not the command
// failed. Cobra skips post-run hooks after an error.
func (c *CLI) execute(ctx context.Context, root *cobra.Command) error {
	defer c.teardown()
	return root.ExecuteContext(ctx)
}
