package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"linkedin-ingest/internal/utils"
)

var historyLimit int

// profileCmd ingests one or more profiles
var profileCmd = &cobra.Command{
	Use:   "profile <public-id>...",
	Short: "Ingest profiles and print their documents as JSON lines",
	Long: `Ingest one or more profiles by public id. Each document is printed as one
JSON object per line, in argument order. Failed profiles are reported on
stderr and make the command exit non-zero.

Examples:
  ingest profile ada-lovelace
  ingest --config ingest.yaml profile ada-lovelace grace-hopper`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProfile,
}

// sessionCmd groups session maintenance
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the upstream session",
}

var sessionLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with the configured credentials and store the new session",
	Args:  cobra.NoArgs,
	RunE:  runSessionLogin,
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Restore or obtain the session and report its state",
	Args:  cobra.NoArgs,
	RunE:  runSessionStatus,
}

// historyCmd shows recorded ingestions for a profile
var historyCmd = &cobra.Command{
	Use:   "history <public-id>",
	Short: "Show recent ingestions of a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := utils.SetupSignalHandling(cmd.Context(), a.logger)
	defer cancel()
	return fn(ctx, a)
}

func runProfile(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		start := time.Now()
		results := a.ingestor.IngestBatch(ctx, args)

		enc := json.NewEncoder(cmd.OutOrStdout())
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.ProfileID, r.Err)
				continue
			}
			if err := enc.Encode(r.Document); err != nil {
				return err
			}
		}
		a.logger.Info("done", zap.Int("profiles", len(args)), zap.Int("failed", failed),
			zap.String("elapsed", utils.FormatElapsed(time.Since(start))))
		if failed > 0 {
			return fmt.Errorf("%d of %d profiles failed", failed, len(args))
		}
		return nil
	})
}

func runSessionLogin(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.sessions.Login(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", a.cfg.Account().CredentialID())
		return nil
	})
}

func runSessionStatus(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		startErr := a.sessions.Start(ctx)
		st := a.sessions.Status()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "credential: %s\n", st.Credential)
		fmt.Fprintf(out, "state:      %s\n", st.State)
		if !st.ObtainedAt.IsZero() {
			fmt.Fprintf(out, "obtained:   %s\n", st.ObtainedAt.Format(time.RFC3339))
		}
		if st.LastError != nil {
			fmt.Fprintf(out, "error:      %v\n", st.LastError)
		}
		return startErr
	})
}

func runHistory(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		records, err := a.storage.History.Recent(ctx, args[0], historyLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, r := range records {
			fmt.Fprintf(out, "%s  %-7s %8s  %s", r.CreatedAt.Format(time.RFC3339), r.Status, utils.FormatElapsed(r.Duration), r.ID)
			if r.Error != "" {
				fmt.Fprintf(out, "  %s", r.Error)
			}
			fmt.Fprintln(out)
		}
		return nil
	})
}
