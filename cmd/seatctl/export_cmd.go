package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/iliyamo/seat-planner/internal/model"
	"github.com/iliyamo/seat-planner/internal/sheet"
)

func newExportCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "export <out.xlsx>",
		Short: "Write the seating chart or sign-in sheets to a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var write func(io.Writer, *model.Layout) error
			switch kind {
			case "seating":
				write = sheet.WriteSeatingChart
			case "sign-in":
				write = sheet.WriteSignInSheet
			default:
				return fmt.Errorf("unknown --kind %q (want seating or sign-in)", kind)
			}

			svc, done, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			layout, err := svc.BuildLayout(cmd.Context())
			if err != nil {
				return err
			}
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := write(f, layout); err != nil {
				_ = f.Close()
				_ = os.Remove(args[0])
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "seating", "Workbook to write: seating or sign-in")
	return cmd
}
