package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"arena-matchmaking/models"
	"arena-matchmaking/storage"
)

var (
	dbPath    string
	redisAddr string
	limit     int
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(queueStatusCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(playerCmd)

	playerCmd.PersistentFlags().StringVar(&dbPath, "db", "arena.db", "Path to the player database")
	playerCmd.AddCommand(playerAddCmd)
	playerCmd.AddCommand(playerShowCmd)

	historyCmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of matches")
	watchCmd.Flags().StringVar(&redisAddr, "redis", "localhost:6379", "Redis address of the event feed")
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(cmd.OutOrStdout(), http.MethodGet, "/health", nil)
	},
}

var queueStatusCmd = &cobra.Command{
	Use:   "queue-status",
	Short: "Show the queue size and live counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(cmd.OutOrStdout(), http.MethodGet, "/api/v1/queue/status", nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(cmd.OutOrStdout(), http.MethodGet, "/metrics", nil)
	},
}

var matchCmd = &cobra.Command{
	Use:   "match <match-id>",
	Short: "Show a match record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(cmd.OutOrStdout(), http.MethodGet, "/api/v1/matches/"+args[0], nil)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <player-id>",
	Short: "Show a player's archived matches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := fmt.Sprintf("/api/v1/players/%s/matches?limit=%d", args[0], limit)
		return performRequest(cmd.OutOrStdout(), http.MethodGet, path, nil)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <match-id> <player-id>",
	Short: "Ask the server to verify a match through the result oracle",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := models.VerifyRequest{MatchID: args[0], PlayerID: args[1]}
		return performRequest(cmd.OutOrStdout(), http.MethodPost, "/api/verify-match", body)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print lifecycle events from the event feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		rs, err := storage.NewRedisStorage(redisAddr, os.Getenv("REDIS_PASSWORD"), 0, zap.NewNop())
		if err != nil {
			return err
		}
		defer rs.Close()

		return watchEvents(ctx, rs, cmd.OutOrStdout())
	},
}

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "Manage player accounts",
}

var playerAddCmd = &cobra.Command{
	Use:   "add <player-id> <display-name> [external-tag]",
	Short: "Create a player or update its profile",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeDB, err := openPlayerStore()
		if err != nil {
			return err
		}
		defer closeDB()

		tag := ""
		if len(args) == 3 {
			tag = args[2]
		}
		p := models.NewPlayer(args[0], args[1], tag)
		if err := store.UpsertPlayer(cmd.Context(), p); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Saved player %s (%s)\n", p.ID, p.DisplayName)
		return nil
	},
}

var playerShowCmd = &cobra.Command{
	Use:   "show <player-id>",
	Short: "Show a player's rating and record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeDB, err := openPlayerStore()
		if err != nil {
			return err
		}
		defer closeDB()

		p, err := store.GetPlayer(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		settled, err := store.SettlementCount(cmd.Context(), p.ID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:           %s\n", p.ID)
		fmt.Fprintf(out, "Name:         %s\n", p.DisplayName)
		fmt.Fprintf(out, "Tag:          %s\n", p.ExternalTag)
		fmt.Fprintf(out, "Rating:       %d\n", p.Rating)
		fmt.Fprintf(out, "Record:       %d-%d\n", p.Wins, p.Losses)
		fmt.Fprintf(out, "Settlements:  %d\n", settled)
		return nil
	},
}

func openPlayerStore() (*storage.PlayerStore, func(), error) {
	db, err := storage.OpenSQLite(dbPath)
	if err != nil {
		return nil, nil, err
	}
	store := storage.NewPlayerStore(db, clockwork.NewRealClock(), zap.NewNop())
	return store, func() { db.Close() }, nil
}

// watchEvents prints events until ctx is cancelled
func watchEvents(ctx context.Context, rs *storage.RedisStorage, out io.Writer) error {
	sub, err := rs.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	fmt.Fprintf(out, "Watching %s\n", storage.EventsChannel)
	for {
		ev, err := sub.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		line, _ := json.Marshal(ev)
		fmt.Fprintln(out, string(line))
	}
}

func performRequest(out io.Writer, method, endpoint string, body interface{}) error {
	url := host + endpoint
	fmt.Fprintf(out, "Making request to %s\n", url)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Fprintf(out, "Status Code: %d\n", resp.StatusCode)
	fmt.Fprintln(out, "Response Body:")
	fmt.Fprintln(out, string(respBody))

	return nil
}
