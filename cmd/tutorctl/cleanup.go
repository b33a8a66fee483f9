package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/sambhav874/tuition-teacher/internal/store"
	"github.com/spf13/cobra"
)

func newCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete tutoring state not updated within --ttl",
		Args:  cobra.NoArgs,
		RunE:  runCleanupCmd,
	}
	cmd.Flags().Duration("ttl", 30*24*time.Hour, "remove state idle longer than this")
	return cmd
}

func runCleanupCmd(cmd *cobra.Command, _ []string) error {
	ttl, _ := cmd.Flags().GetDuration("ttl")
	if ttl <= 0 {
		return errors.New("--ttl must be positive")
	}

	repo, closeRepo, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeRepo()

	n := store.CleanupOnce(cmd.Context(), repo, ttl, func(userID string) {
		fmt.Fprintln(cmd.OutOrStdout(), styleDim.Render("removed "+userID))
	})
	fmt.Fprintln(cmd.OutOrStdout(), styleSuccess.Render(fmt.Sprintf("cleaned %d state(s)", n)))
	return nil
}
