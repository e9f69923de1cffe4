package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iliyamo/seat-planner/internal/model"
)

func newLayoutCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the reconciled seating layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			layout, err := svc.BuildLayout(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), layout)
			}
			printLayout(cmd.OutOrStdout(), layout)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the layout as JSON")
	return cmd
}

// printLayout renders one line per desk, "-" marking an empty seat.
func printLayout(w io.Writer, l *model.Layout) {
	for _, d := range l.Desks {
		names := make([]string, len(d.Seats))
		for i, s := range d.Seats {
			names[i] = "-"
			if s.Person != nil {
				names[i] = s.Person.Name
			}
		}
		fmt.Fprintf(w, "desk %d: %s\n", d.DeskNumber, strings.Join(names, " | "))
	}
	waiting := make([]string, len(l.Waiting))
	for i, p := range l.Waiting {
		waiting[i] = p.Name
	}
	fmt.Fprintf(w, "waiting (%d): %s\n", len(waiting), strings.Join(waiting, ", "))
	fmt.Fprintf(w, "utilization: %.2f%%\n", l.Stats.UtilizationRate)
}
