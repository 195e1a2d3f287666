package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/orion/agent"
	"github.com/teranos/orion/am"
	"github.com/teranos/orion/errors"
	"github.com/teranos/orion/logger"
	"github.com/teranos/orion/pulse/heartbeat"
	"github.com/teranos/orion/sym"
)

// HeartbeatCmd groups the heartbeat scheduler commands
var HeartbeatCmd = &cobra.Command{
	Use:   "heartbeat",
	Short: sym.Pulse + " Run and inspect the heartbeat scheduler",
	Long: sym.Pulse + ` heartbeat - periodic task scheduler.

Every tick runs the tasks that are due, highest priority first, and
records the pulse. Task failures are captured in the pulse and never stop
the loop.

Examples:
  orion heartbeat start                 # Loop at the configured interval
  orion heartbeat start --interval 10s  # Override the interval
  orion heartbeat pulse                 # Run a single tick and print it
  orion heartbeat status                # Show scheduler and host status
  orion heartbeat log --tail 20         # Show the last 20 pulses`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var heartbeatStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the heartbeat loop in the foreground",
	Long: `Start the heartbeat loop in the foreground.

The first pulse runs immediately. On Ctrl+C the loop finishes the pulse in
progress, saves its state and exits. When heartbeat.metrics_addr is set,
Prometheus metrics are served on /metrics.`,
	RunE: runHeartbeatStart,
}

var heartbeatPulseCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Run a single tick and print the pulse",
	RunE:  runHeartbeatPulse,
}

var heartbeatStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show heartbeat status",
	RunE:  runHeartbeatStatus,
}

var heartbeatLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent pulses",
	RunE:  runHeartbeatLog,
}

func init() {
	heartbeatStartCmd.Flags().Duration("interval", 0, "Interval between pulses (default from heartbeat.interval_seconds)")
	heartbeatPulseCmd.Flags().Bool("force", false, "Tick even if another heartbeat is running")
	heartbeatStatusCmd.Flags().Bool("json", false, "Output status as JSON")
	heartbeatLogCmd.Flags().Int("tail", 10, "Number of most recent pulses to show (0 = all)")
	heartbeatLogCmd.Flags().Bool("json", false, "Output raw pulse records")

	HeartbeatCmd.AddCommand(heartbeatStartCmd)
	HeartbeatCmd.AddCommand(heartbeatPulseCmd)
	HeartbeatCmd.AddCommand(heartbeatStatusCmd)
	HeartbeatCmd.AddCommand(heartbeatLogCmd)
}

func loadConfig() (*am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func runHeartbeatStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	interval, _ := cmd.Flags().GetDuration("interval")
	if interval == 0 {
		interval = cfg.Interval()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg, cfg.Heartbeat.MetricsAddr != "")
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Heartbeat.MetricsAddr != "" {
		if err := a.serveMetrics(ctx, cfg.Heartbeat.MetricsAddr); err != nil {
			return err
		}
	}

	res, err := a.hb.Start(ctx, interval)
	if err != nil {
		return err
	}
	if err := a.proofs.Record(ctx, agent.ProofHeartbeatStarted,
		fmt.Sprintf("heartbeat started, interval %s, run %s", interval, res.RunID)); err != nil {
		a.logger.Warnw("Failed to record start proof", logger.FieldError, err)
	}

	pterm.Success.Printfln("%s Heartbeat started", sym.Pulse)
	pterm.Printfln("  Run ID:   %s", res.RunID)
	pterm.Printfln("  Interval: %s", interval)
	pterm.Printfln("  Tasks:    %d", res.Tasks)
	pterm.Printfln("  Store:    %s", cfg.Heartbeat.Store)
	if cfg.Heartbeat.MetricsAddr != "" {
		pterm.Printfln("  Metrics:  http://%s/metrics", cfg.Heartbeat.MetricsAddr)
	}
	pterm.Println()
	pterm.Info.Println("Press Ctrl+C to stop after the current pulse")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	pterm.Println()
	pterm.Info.Printfln("%s Stopping heartbeat...", sym.PulseClose)
	stopped := a.hb.Stop()
	pterm.Success.Printfln("Heartbeat stopped after %d total pulses", stopped.TotalPulses)
	return nil
}

func runHeartbeatPulse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if force, _ := cmd.Flags().GetBool("force"); !force {
		if err := a.ensureIdle(ctx); err != nil {
			return err
		}
	}

	p, tickErr := a.hb.SingleTick(ctx)
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode pulse: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))

	if tickErr != nil {
		return errors.Wrap(tickErr, "pulse was not fully persisted")
	}
	return nil
}

// statusView is the combined status report of the status command
type statusView struct {
	Heartbeat    heartbeat.Status         `json:"heartbeat"`
	LastSnapshot *heartbeat.Snapshot      `json:"last_snapshot,omitempty"`
	System       *heartbeat.SystemMetrics `json:"system,omitempty"`
}

func runHeartbeatStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	view := statusView{Heartbeat: a.hb.Status()}
	if snap, err := a.state.Load(ctx); err == nil {
		view.LastSnapshot = snap
	} else if !errors.IsNotFoundError(err) {
		a.logger.Warnw("Failed to read state snapshot", logger.FieldError, err)
	}
	if sys, err := heartbeat.ReadSystemMetrics(); err == nil {
		view.System = &sys
	} else {
		a.logger.Debugw("System metrics unavailable", logger.FieldError, err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode status: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	renderStatus(view)
	return nil
}

func renderStatus(view statusView) {
	pterm.DefaultSection.Printfln("%s Heartbeat", sym.Pulse)
	pterm.Printfln("Protocol:     %s", view.Heartbeat.Version)
	pterm.Printfln("Total pulses: %d", view.Heartbeat.PulseCount)

	if snap := view.LastSnapshot; snap != nil {
		loop := "stopped"
		if snap.Running {
			loop = "running"
		}
		pterm.Printfln("Last loop:    %s (run %s)", loop, orDash(snap.RunID))
		pterm.Printfln("Last save:    %s", snap.LastSave.Local().Format(time.RFC3339))
		if snap.StartTime != nil {
			pterm.Printfln("Started:      %s", snap.StartTime.Local().Format(time.RFC3339))
		}
	}
	if view.Heartbeat.LastError != "" {
		pterm.Warning.Printfln("Last error: %s", view.Heartbeat.LastError)
	}

	rows := pterm.TableData{{"Task", "Interval", "Priority", "Runs", "Errors", "Last run"}}
	for _, t := range view.Heartbeat.Tasks {
		lastRun := "never"
		if t.LastRun != nil {
			lastRun = t.LastRun.Local().Format(time.RFC3339)
		}
		rows = append(rows, []string{
			t.Name,
			t.Interval.String(),
			strconv.Itoa(t.Priority),
			strconv.FormatUint(t.RunCount, 10),
			strconv.FormatUint(t.ErrorCount, 10),
			lastRun,
		})
	}
	pterm.Println()
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()

	if sys := view.System; sys != nil {
		pterm.Println()
		pterm.DefaultSection.Println("Host")
		pterm.Printfln("Memory: %.1f / %.1f GB (%.0f%%)", sys.MemoryUsedGB, sys.MemoryTotalGB, sys.MemoryPercent)
		pterm.Printfln("Uptime: %s", heartbeat.FormatUptime(time.Duration(sys.HostUptimeSec)*time.Second))
	}
}

func runHeartbeatLog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	n, _ := cmd.Flags().GetInt("tail")
	pulses, err := a.recent(ctx, n)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, p := range pulses {
			if err := enc.Encode(p); err != nil {
				return fmt.Errorf("failed to encode pulse %d: %w", p.Number, err)
			}
		}
		return nil
	}

	if len(pulses) == 0 {
		pterm.Info.Println("No pulses recorded yet")
		return nil
	}

	rows := pterm.TableData{{"#", "Pulse ID", "Time", "Executed", "Failed"}}
	for _, p := range pulses {
		rows = append(rows, []string{
			strconv.FormatUint(p.Number, 10),
			p.ID,
			p.Timestamp.Local().Format(time.RFC3339),
			strconv.Itoa(len(p.Executed)),
			strconv.Itoa(p.Failed()),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
