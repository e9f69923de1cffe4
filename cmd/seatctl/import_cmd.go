package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/iliyamo/seat-planner/internal/logging"
	"github.com/iliyamo/seat-planner/internal/memstore"
	"github.com/iliyamo/seat-planner/internal/service"
	"github.com/iliyamo/seat-planner/internal/sheet"
)

func newImportCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import persons from the first sheet of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			rows, err := sheet.ReadImportRows(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			if dryRun {
				return runImport(cmd.Context(), dryRunService(), rows, cmd.OutOrStdout(), cmd.ErrOrStderr())
			}

			svc, done, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			return runImport(cmd.Context(), svc, rows, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and import into an empty in-memory store; the database is not touched")
	return cmd
}

// dryRunService imports into a throwaway in-memory store.  Validation is
// identical to a real import; duplicates already in the database are not
// detected.
func dryRunService() *service.Service {
	return service.New(memstore.New(), service.WithLogger(logging.Discard()))
}

func runImport(ctx context.Context, svc *service.Service, rows []service.ImportRow, out, errOut io.Writer) error {
	res, err := svc.ImportPersons(ctx, rows)
	if err != nil {
		var se *service.Error
		if errors.As(err, &se) && len(se.Fields) > 0 {
			_ = writeJSON(errOut, se.Fields)
		}
		return err
	}
	return writeJSON(out, res)
}
