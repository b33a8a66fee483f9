package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sambhav874/tuition-teacher/internal/session"
	"github.com/sambhav874/tuition-teacher/internal/tutor"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a session transcript as plain text",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().String("user", "", "user ID")
	cmd.Flags().String("session", "", "session ID")
	cmd.Flags().String("mode", "", "mode used to name the output file")
	cmd.Flags().StringP("out", "o", "", "write to a file; use \"auto\" for <mode>-<date>.txt")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	sessionID, _ := cmd.Flags().GetString("session")
	mode, _ := cmd.Flags().GetString("mode")
	out, _ := cmd.Flags().GetString("out")

	repo, closeRepo, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeRepo()

	state, err := repo.LoadState(cmd.Context(), userID)
	if err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("%w: %s", errNoState, userID)
	}

	sess, ok := session.New(*state).Session(sessionID)
	if !ok {
		return fmt.Errorf("%w: %s", tutor.ErrSessionNotFound, sessionID)
	}
	text := tutor.Transcript(sess.Messages)

	if out == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	}
	if out == "auto" {
		out = tutor.ExportFileName(mode, time.Now())
	}
	if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), styleSuccess.Render("wrote "+out))
	return nil
}
