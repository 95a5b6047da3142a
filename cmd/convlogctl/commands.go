package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/ganot/convlog/internal/config"
	"github.com/ganot/convlog/internal/domain/activity"
	"github.com/ganot/convlog/internal/logging"
	"github.com/ganot/convlog/internal/storage"
)

// app holds what every subcommand needs once the root command has run.
type app struct {
	cfg     config.Config
	svc     *activity.Service
	backend *storage.Backend
	logger  *slog.Logger
	out     io.Writer
}

func (a *app) close() error {
	if a.backend == nil {
		return nil
	}
	err := a.backend.Close()
	a.backend = nil
	return err
}

func newRootCmd(a *app) *cobra.Command {
	var dbDriver, dbPath string

	root := &cobra.Command{
		Use:           "convlogctl",
		Short:         "Inspect and maintain a convlog activity store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if dbDriver != "" {
				cfg.DB.Driver = dbDriver
			}
			if dbPath != "" {
				cfg.DB.Path = dbPath
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			// Each invocation is one unit of work.
			cfg.Store.AutoCommit = true

			logger := logging.New(cmd.ErrOrStderr(), cfg.Log.Level)
			backend, err := storage.Open(cfg, logger)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.backend = backend
			a.logger = logger
			a.svc = activity.NewService(backend.Storage, storage.ServiceOptions(cfg.Store), logger)
			a.out = cmd.OutOrStdout()
			return nil
		},
	}

	root.PersistentFlags().StringVar(&dbDriver, "driver", "", "database driver (sqlite, gorm-sqlite, postgres, memory)")
	root.PersistentFlags().StringVar(&dbPath, "db", "", "database file path")

	root.AddCommand(
		newLogCmd(a),
		newListCmd(a),
		newDeleteConversationCmd(a),
		newDeleteUserCmd(a),
		newPruneCmd(a),
	)
	return root
}

func newLogCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Log activities read as JSON, one document per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			dec := json.NewDecoder(in)
			count := 0
			for {
				var act activity.Activity
				if err := dec.Decode(&act); err != nil {
					if err == io.EOF {
						break
					}
					return fmt.Errorf("decode activity %d: %w", count+1, err)
				}
				if err := a.svc.Log(cmd.Context(), &act); err != nil {
					return fmt.Errorf("log activity %d: %w", count+1, err)
				}
				count++
			}
			fmt.Fprintf(a.out, "logged %d activities\n", count)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "input file, - for stdin")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var olderThan string
	cmd := &cobra.Command{
		Use:   "list <channel-id> <conversation-id>",
		Short: "Print the activities of a conversation as JSON lines",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cutoff, err := parseCutoff(olderThan)
			if err != nil {
				return err
			}
			acts, err := a.svc.ListActivities(cmd.Context(), args[0], args[1], cutoff)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(a.out)
			for _, act := range acts {
				if err := enc.Encode(act); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&olderThan, "older-than", "", "RFC 3339 timestamp or duration ago, e.g. 24h")
	return cmd
}

func newDeleteConversationCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-conversation <channel-id> <conversation-id>",
		Short: "Delete a conversation and its activities",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc.DeleteConversation(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted conversation %s/%s\n", args[0], args[1])
			return nil
		},
	}
}

func newDeleteUserCmd(a *app) *cobra.Command {
	var scoped bool
	cmd := &cobra.Command{
		Use:   "delete-user <user-id>",
		Short: "Delete a user's activities and the conversations they appear in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := a.svc
			if scoped {
				opts := storage.ServiceOptions(a.cfg.Store)
				opts.ScopedUserDeletion = true
				svc = activity.NewService(a.backend.Storage, opts, a.logger)
			}
			if err := <-svc.DeleteUserActivities(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted activities of user %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&scoped, "scoped", false, "keep conversations that still hold other users' activities")
	return cmd
}

func newPruneCmd(a *app) *cobra.Command {
	var olderThan string
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete activities older than a cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan == "" && a.cfg.Store.Retention > 0 {
				olderThan = a.cfg.Store.Retention.String()
			}
			cutoff, err := parseCutoff(olderThan)
			if err != nil {
				return err
			}
			if cutoff.IsZero() {
				return fmt.Errorf("--older-than is required when no retention is configured")
			}
			stats, err := a.svc.DeleteOlderThan(cmd.Context(), cutoff)
			if err != nil {
				return err
			}
			return json.NewEncoder(a.out).Encode(stats)
		},
	}
	cmd.Flags().StringVar(&olderThan, "older-than", "", "RFC 3339 timestamp or duration ago, e.g. 720h")
	return cmd
}

// parseCutoff accepts an RFC 3339 timestamp or a duration counted back from now.
func parseCutoff(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC(), nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cutoff %q: want RFC 3339 timestamp or duration", value)
	}
	return time.Now().UTC().Add(-d), nil
}
