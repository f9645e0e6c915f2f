package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"MarketBrief/internal/notifier"
	"MarketBrief/internal/scheduler"
	"MarketBrief/internal/session"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:          "marketbrief",
		Short:        "Session-aware market briefing service",
		SilenceUsage: true,
	}

	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultPath, "Configuration file path")

	rootCmd.AddCommand(newServeCmd(&cfgPath))
	rootCmd.AddCommand(newSnapshotCmd(&cfgPath))
	rootCmd.AddCommand(newSessionCmd(&cfgPath))
	rootCmd.AddCommand(newDetailCmd(&cfgPath))
	rootCmd.AddCommand(newHistoryCmd(&cfgPath))
	return rootCmd
}

// newServeCmd runs the scheduler and the Telegram command loop until a
// shutdown signal arrives.
func newServeCmd(cfgPath *string) *cobra.Command {
	var warmNow bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Warm the cache at session boundaries and answer Telegram commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			a, err := newApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.cfg.ValidateTelegram(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			a.log.Info("MarketBrief starting", zap.Int("sessions", len(a.cfg.Sessions)))

			tn := notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy, "", a.log.Named("telegram"))
			sched := scheduler.NewScheduler(ctx, a.clock, a.builder, a.store, tn, a.recorder, a.log.Named("scheduler"))
			sched.Briefing = a.cfg.Schedule.Briefing
			if a.cfg.Schedule.WarmOnOpen {
				if err := sched.RegisterAll(); err != nil {
					return fmt.Errorf("register cron tasks: %w", err)
				}
			}
			sched.Start()
			defer sched.Stop()

			go tn.StartPolling(ctx, sched.HandleCommand)
			a.log.Info("telegram polling started")

			if warmNow || os.Getenv("RUN_ON_START") == "true" {
				go sched.Warm(ctx, scheduler.TriggerManual)
			}

			a.log.Info("MarketBrief is running, press Ctrl+C to stop")
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			a.log.Info("shutdown signal received, stopping")
			cancel()
			return nil
		},
	}
	cmd.Flags().BoolVar(&warmNow, "warm", false, "Warm the cache immediately on start")
	return cmd
}

func newSnapshotCmd(cfgPath *string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Build the market overview once and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ov := a.builder.Build(ctx)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(ov)
			}
			fmt.Fprintln(cmd.OutOrStdout(), notifier.FormatBriefing(ov))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the overview as JSON")
	return cmd
}

func newSessionCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Show the active trading session and its cache keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			now := a.clock.Now()
			st := a.clock.At(now)
			keys := []string{
				session.KeyFor(session.CategoryMarketData, st),
				session.KeyFor(session.CategoryNews, st),
				session.KeyFor(session.CategoryCalendar, st),
				session.KeyFor(session.CategoryAnalysis, st),
			}
			fmt.Fprintln(cmd.OutOrStdout(), notifier.FormatSession(st, a.clock.Badges(now), keys))
			return nil
		},
	}
}

func newDetailCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "detail [TICKER]",
		Short: "Show indicators and ATR levels for one ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.builder.Detail(ctx, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), notifier.FormatDetail(d))
			return nil
		},
	}
}

func newHistoryCmd(cfgPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [ASSET]",
		Short: "Print archived snapshot rows for one asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			rows, err := a.recorder.History(ctx, args[0], limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-20s %-12s %11s %8s %8s %8s %6s\n", "Taken", "Session", "Last", "D1%", "WTD%", "MTD%", "Z")
			for _, r := range rows {
				fmt.Fprintf(out, "%-20s %-12s %11s %8s %8s %8s %6s\n",
					r.TakenAt.Format("2006-01-02 15:04"), r.Session, notifier.Price(r.Last),
					fmtNull(r.D1.Valid, r.D1.Float64), fmtNull(r.WTD.Valid, r.WTD.Float64),
					fmtNull(r.MTD.Valid, r.MTD.Float64), fmtNull(r.ZScore.Valid, r.ZScore.Float64))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to print")
	return cmd
}

func fmtNull(valid bool, v float64) string {
	if !valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}
