// Command watchctl is the Padel Watch operations CLI.
//
// Usage:
//
//	watchctl check --location "Лужники" --date 2026-09-05
//	watchctl initdb
//	watchctl subs list
//	watchctl subs purge --user 123456
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/padelwatch/padelwatch/internal/availability"
	"github.com/padelwatch/padelwatch/internal/config"
	"github.com/padelwatch/padelwatch/internal/db"
	"github.com/padelwatch/padelwatch/internal/provider"
	"github.com/padelwatch/padelwatch/internal/subscription"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "watchctl",
		Short: "Padel Watch operations CLI",
	}

	root.AddCommand(checkCmd())
	root.AddCommand(initDBCmd())
	root.AddCommand(subsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// check command
// --------------------------------------------------------------------------

func checkCmd() *cobra.Command {
	var locName, dateStr string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Query provider availability for one location and date",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			tz, err := time.LoadLocation(config.VenueTimezone)
			if err != nil {
				return fmt.Errorf("load timezone: %w", err)
			}

			loc, ok := config.GetLocation(locName)
			if !ok {
				return fmt.Errorf("unknown location %q", locName)
			}
			date := time.Now().In(tz)
			if dateStr != "" {
				date, err = time.ParseInLocation(subscription.DateLayout, dateStr, tz)
				if err != nil {
					return fmt.Errorf("parse date: %w", err)
				}
			}

			agg := availability.NewAggregator(provider.DefaultRegistry(cfg, logger), logger)
			start := time.Now()
			snap := agg.Fetch(ctx, loc, date)
			logger.Info("Availability fetched",
				"location", locName,
				"date", date.Format(subscription.DateLayout),
				"slots", len(snap),
				"duration", time.Since(start).Round(time.Millisecond))

			labels := make([]string, 0, len(snap))
			for label := range snap {
				labels = append(labels, label)
			}
			sort.Strings(labels)
			for _, label := range labels {
				for court, price := range snap[label] {
					fmt.Printf("%s  %-20s  %.0f\n", label, court, price)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&locName, "location", "", "Location name (required)")
	cmd.Flags().StringVar(&dateStr, "date", "", "Date (YYYY-MM-DD), default today")
	_ = cmd.MarkFlagRequired("location")
	return cmd
}

// --------------------------------------------------------------------------
// initdb command
// --------------------------------------------------------------------------

func initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Create the database schema and verify connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if err := pool.HealthCheck(ctx); err != nil {
					return fmt.Errorf("health check: %w", err)
				}
				logger.Info("Schema ready, database healthy")
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// subs command
// --------------------------------------------------------------------------

func subsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subs",
		Short: "Inspect and manage subscriptions",
	}
	cmd.AddCommand(subsListCmd())
	cmd.AddCommand(subsPurgeCmd())
	return cmd
}

func subsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all active subscriptions grouped by user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, store *subscription.Store) error {
				users, err := store.GetAllWithChatIDs(ctx)
				if err != nil {
					return err
				}
				total := 0
				for userID, rec := range users {
					fmt.Printf("user %d (chat %d):\n", userID, rec.ChatID)
					for _, sub := range rec.Subscriptions {
						fmt.Printf("  [%d] %s  %s  %v  %s\n",
							sub.ID, sub.Location, sub.HourDescribe(), sub.CourtTypes, sub.Predicate.Describe())
						total++
					}
				}
				logger.Info("Subscriptions listed", "users", len(users), "subscriptions", total)
				return nil
			})
		},
	}
}

func subsPurgeCmd() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete all subscriptions of one user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == 0 {
				return fmt.Errorf("--user is required")
			}
			return withStore(func(ctx context.Context, store *subscription.Store) error {
				if err := store.RemoveAll(ctx, userID); err != nil {
					return err
				}
				logger.Info("Subscriptions purged", "user_id", userID)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "User ID to purge")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// withDB handles config loading, DB connection, and context cancellation.
func withDB(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}

func withStore(fn func(ctx context.Context, store *subscription.Store) error) error {
	return withDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
		tz, err := time.LoadLocation(config.VenueTimezone)
		if err != nil {
			return fmt.Errorf("load timezone: %w", err)
		}
		return fn(ctx, subscription.NewStore(pool.Pool, tz))
	})
}
