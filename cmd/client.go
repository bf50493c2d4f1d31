package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"vibe-check-backend/pkg/client"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	serverURL   string
	apiToken    string
	queuePath   string
	checkinMood int
	checkinNote string
)

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Submit today's vibe, queueing it if the server is unreachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, q, err := openClient()
		if err != nil {
			return err
		}

		var note *string
		if cmd.Flags().Changed("note") {
			note = &checkinNote
		}

		vibe, queued, err := q.SubmitOrQueue(cmd.Context(), c, checkinMood, note)
		if err != nil {
			return err
		}
		if queued {
			log.Warn().Int("pending", q.Len()).Msg("Server unavailable, check-in queued")
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Checked in for %s with mood %d\n", vibe.Date, vibe.Mood)
		return nil
	},
}

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Send queued check-ins",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, q, err := openClient()
		if err != nil {
			return err
		}
		if q.Len() == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to send")
			return nil
		}

		result, err := q.Flush(cmd.Context(), c)
		for _, r := range result.Rejected {
			log.Warn().Err(r.Err).Int("mood", r.Vibe.Mood).Time("queued_at", r.Vibe.QueuedAt).Msg("Queued check-in rejected")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Sent %d, already checked in %d, rejected %d, remaining %d\n",
			result.Sent, result.Resolved, len(result.Rejected), result.Remaining)
		if client.IsUnauthorized(err) {
			return fmt.Errorf("flush stopped, log in again and pass the new --token: %w", err)
		}
		if err != nil {
			return fmt.Errorf("flush stopped: %w", err)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{checkinCmd, flushCmd} {
		c.Flags().StringVar(&serverURL, "server", envOr("VIBECHECK_SERVER", "http://localhost:8080"), "API base URL")
		c.Flags().StringVar(&apiToken, "token", os.Getenv("VIBECHECK_TOKEN"), "API token (defaults to $VIBECHECK_TOKEN)")
		c.Flags().StringVar(&queuePath, "queue", defaultQueuePath(), "path of the offline queue file")
	}

	checkinCmd.Flags().IntVar(&checkinMood, "mood", 0, "mood from 1 to 5")
	checkinCmd.Flags().StringVar(&checkinNote, "note", "", "optional note")
	_ = checkinCmd.MarkFlagRequired("mood")
}

func openClient() (*client.Client, *client.Queue, error) {
	setupLogger("info", "console")

	if apiToken == "" {
		return nil, nil, fmt.Errorf("an API token is required, pass --token or set VIBECHECK_TOKEN")
	}

	q, err := client.OpenQueue(queuePath)
	if err != nil {
		return nil, nil, err
	}
	return client.New(serverURL, client.WithToken(apiToken)), q, nil
}

func defaultQueuePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "vibecheck-queue.json"
	}
	return filepath.Join(home, ".vibecheck", "queue.json")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
