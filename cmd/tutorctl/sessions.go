package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sambhav874/tuition-teacher/internal/session"
	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "User commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List known users, most recently seen first",
		Args:  cobra.NoArgs,
		RunE:  runUsersListCmd,
	})
	return cmd
}

func runUsersListCmd(cmd *cobra.Command, _ []string) error {
	repo, closeRepo, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeRepo()

	users, err := repo.ListUsers(cmd.Context())
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), styleDim.Render("No users found."))
		return nil
	}

	t := newTable("USER ID", "USERNAME", "LAST SEEN", "CREATED")
	for _, u := range users {
		t.Row(u.UserID, u.Username, formatTime(u.LastSeenAt), formatTime(u.CreatedAt))
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), t.String())
	return err
}

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Session commands",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List a user's sessions",
		Args:  cobra.NoArgs,
		RunE:  runSessionsListCmd,
	}
	list.Flags().String("user", "", "user ID")
	_ = list.MarkFlagRequired("user")

	cmd.AddCommand(list)
	return cmd
}

var errNoState = errors.New("no saved state for user")

func runSessionsListCmd(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")

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

	summaries := session.New(*state).Sessions()
	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), styleDim.Render("No sessions found."))
		return nil
	}

	current := ""
	if state.CurrentSessionID != nil {
		current = *state.CurrentSessionID
	}

	t := newTable("", "SESSION ID", "TITLE", "MESSAGES", "UPDATED")
	for _, s := range summaries {
		marker := " "
		id := s.ID
		if id == current {
			marker = styleActive.Render("*")
			id = styleActive.Render(id)
		}
		t.Row(marker, id, s.Title, strconv.Itoa(s.MessageCount), formatTime(time.UnixMilli(s.UpdatedAt)))
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), t.String())
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}
