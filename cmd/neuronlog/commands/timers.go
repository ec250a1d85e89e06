package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"neuronwatch/internal/core/stopwatch"
	"neuronwatch/internal/storage"
)

func newTimersCommand(options *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "timers",
		Short: "List persisted timers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdapter(options, func(adapter *storage.Adapter) error {
				return RunTimers(adapter, cmd.OutOrStdout())
			})
		},
	}
}

// RunTimers writes one row per persisted timer.
func RunTimers(adapter *storage.Adapter, w io.Writer) error {
	timers := adapter.LoadTimers()
	if len(timers) == 0 {
		_, err := fmt.Fprintln(w, "No neurons.")
		return err
	}

	table := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(table, "NEURON\tELAPSED\tSTATE\tSTATUS")
	for _, timer := range timers {
		fmt.Fprintf(table, "%d\t%s\t%s\t%s\n",
			timer.ID, stopwatch.FormatElapsed(timer.Elapsed), timer.State(), timer.Status)
	}
	return table.Flush()
}
