package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iliyamo/seat-planner/internal/utils"
)

// newHashPasswordCmd prints a bcrypt hash for OPERATOR_PASSWORD_HASH.
// The password is read from stdin so it stays out of shell history.
func newHashPasswordCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash an operator password read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return errors.New("no password on stdin")
			}
			plain := strings.TrimRight(line, "\r\n")
			if plain == "" {
				return errors.New("empty password")
			}
			hash, err := utils.HashPassword(plain, cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", 0, "bcrypt cost (0 selects the library default)")
	return cmd
}
