package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"neuronwatch/internal/core/stopwatch"
	"neuronwatch/internal/storage"
)

func newHistoryCommand(options *rootOptions) *cobra.Command {
	history := &cobra.Command{
		Use:   "history",
		Short: "Work with the history log",
	}

	history.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show history records as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdapter(options, func(adapter *storage.Adapter) error {
				return RunHistoryList(adapter, cmd.OutOrStdout())
			})
		},
	})

	var output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Print history as rendered lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdapter(options, func(adapter *storage.Adapter) error {
				if output == "" {
					return RunHistoryExport(adapter, cmd.OutOrStdout())
				}
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				if err := RunHistoryExport(adapter, file); err != nil {
					_ = file.Close()
					return err
				}
				return file.Close()
			})
		},
	}
	export.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	history.AddCommand(export)

	history.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Append rendered history lines from a file",
		Long: `Each line must look like
  Neuron 1 (status) stopped at 00:00:05 on 10/19/2026, 9:00:05 AM
Lines that do not match are skipped with a warning.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer file.Close()

			return withAdapter(options, func(adapter *storage.Adapter) error {
				return RunHistoryImport(adapter, file, cmd.OutOrStdout(), cmd.ErrOrStderr())
			})
		},
	})

	history.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every history record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdapter(options, func(adapter *storage.Adapter) error {
				return RunHistoryClear(adapter, cmd.OutOrStdout())
			})
		},
	})

	return history
}

// RunHistoryList writes history as a table.
func RunHistoryList(adapter *storage.Adapter, w io.Writer) error {
	records := adapter.LoadHistory()
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "History is empty.")
		return err
	}

	table := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(table, "#\tNEURON\tELAPSED\tSTOPPED\tSTATUS")
	for index, record := range records {
		fmt.Fprintf(table, "%d\t%d\t%s\t%s\t%s\n",
			index+1, record.ID, stopwatch.FormatElapsed(record.Elapsed), record.Timestamp, record.Status)
	}
	return table.Flush()
}

// RunHistoryExport writes one rendered line per record.
func RunHistoryExport(adapter *storage.Adapter, w io.Writer) error {
	for _, record := range adapter.LoadHistory() {
		if _, err := fmt.Fprintln(w, stopwatch.FormatLine(record)); err != nil {
			return err
		}
	}
	return nil
}

// RunHistoryImport appends the parseable lines of r to the history. Skipped
// lines are reported on errOut and do not fail the import.
func RunHistoryImport(adapter *storage.Adapter, r io.Reader, out, errOut io.Writer) error {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read history lines: %w", err)
	}

	imported, err := adapter.ImportHistoryLines(lines)
	if err != nil {
		if !errors.Is(err, stopwatch.ErrHistoryParse) {
			return err
		}
		fmt.Fprintf(errOut, "warning: skipped malformed lines:\n%v\n", err)
	}
	_, writeErr := fmt.Fprintf(out, "Imported %d record(s).\n", imported)
	return writeErr
}

// RunHistoryClear removes the history log and leaves timers alone.
func RunHistoryClear(adapter *storage.Adapter, w io.Writer) error {
	if err := adapter.ClearHistory(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "History cleared.")
	return err
}
