package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/monkey-cli/internal/browser"
	"github.com/xkilldash9x/monkey-cli/internal/config"
	"github.com/xkilldash9x/monkey-cli/internal/observability"
	"github.com/xkilldash9x/monkey-cli/internal/orchestrator"
	"github.com/xkilldash9x/monkey-cli/internal/outcome"
	"github.com/xkilldash9x/monkey-cli/internal/reporting"
	"github.com/xkilldash9x/monkey-cli/internal/screenshot"
)

const shutdownTimeout = 10 * time.Second

// newRunCmd creates and configures the `run` command.
func newRunCmd(a *app) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [urls...]",
		Short: "Runs a monkey session against the given pages",
		Long: `Runs a monkey session against the given pages. Without arguments the
pages come from targets.urls in the configuration, or from the selected profile.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			urls, err := resolveTargets(args, a.cfg.Targets)
			if err != nil {
				return err
			}
			return runSession(cmd.Context(), a.cfg, urls, cmd.Flag("mode").Value.String(), cmd.OutOrStdout())
		},
	}

	flags := runCmd.Flags()
	flags.Float64("target-rate", 92, "target success rate in percent")
	flags.Int("actions", 0, "actions per page (overrides --mode)")
	flags.String("mode", "", "run mode: lightning, quick, standard or extended")
	flags.String("profile", "", "URL profile when no URLs are given: quick, comprehensive or extended")
	flags.Bool("visible", false, "show the browser window")
	flags.Int64("seed", 0, "random seed; 0 picks one from the clock")
	flags.String("report-dir", "", "directory for reports")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address during the run")
	return runCmd
}

// applyRunFlags maps the run flags onto configuration keys. Commands without
// these flags are left untouched.
func applyRunFlags(cmd *cobra.Command, v *viper.Viper) error {
	flags := cmd.Flags()
	if flags.Lookup("mode") == nil {
		return nil
	}

	if name, _ := flags.GetString("mode"); name != "" {
		mode, err := config.LookupMode(name)
		if err != nil {
			return err
		}
		v.Set("monkey.actions_per_page", mode.ActionsPerPage)
		v.Set("monkey.min_delay", mode.MinDelay)
		v.Set("monkey.max_delay", mode.MaxDelay)
		v.Set("network.post_load_wait", mode.PostLoadWait)
	}
	if flags.Changed("actions") {
		n, _ := flags.GetInt("actions")
		v.Set("monkey.actions_per_page", n)
	}
	if flags.Changed("target-rate") {
		pct, _ := flags.GetFloat64("target-rate")
		v.Set("monkey.target_rate", pct/100)
	}
	if flags.Changed("visible") {
		visible, _ := flags.GetBool("visible")
		v.Set("browser.headless", !visible)
	}

	bindings := map[string]string{
		"monkey.seed":         "seed",
		"targets.profile":     "profile",
		"report.dir":          "report-dir",
		"report.metrics_addr": "metrics-addr",
	}
	for key, name := range bindings {
		if flags.Changed(name) {
			if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveTargets picks the URLs to exercise: command line arguments first,
// then targets.urls, then the profile.
func resolveTargets(args []string, targets config.TargetsConfig) ([]string, error) {
	raw := args
	if len(raw) == 0 {
		raw = targets.URLs
	}
	if len(raw) == 0 {
		urls, err := config.ProfileURLs(targets.Profile)
		if err != nil {
			return nil, err
		}
		raw = urls
	}

	urls := make([]string, 0, len(raw))
	for _, u := range raw {
		if n := config.NormalizeURL(u); n != "" {
			urls = append(urls, n)
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no target URLs")
	}
	return urls, nil
}

// runSession launches the browser, runs the monkey loop and always writes the
// reports, also when the run is interrupted.
func runSession(ctx context.Context, cfg *config.Config, urls []string, mode string, out io.Writer) error {
	logger := observability.GetLogger()
	sessionID := uuid.NewString()
	reportDir := filepath.Join(cfg.Report.Dir, sessionID)

	logger.Info("Starting new session.",
		zap.String("session_id", sessionID),
		zap.Strings("urls", urls),
		zap.Int("actions_per_page", cfg.Monkey.ActionsPerPage),
		zap.Float64("target_rate", cfg.Monkey.TargetRate))

	actionLog, err := observability.NewActionLogger(filepath.Join(reportDir, "actions.log"), cfg.Logger, logger)
	if err != nil {
		return err
	}
	defer actionLog.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	agg := outcome.NewAggregator(outcome.WithRegisterer(reg))

	newSession := func() *reporting.Session {
		return &reporting.Session{
			ID:          sessionID,
			GeneratedAt: time.Now(),
			TargetRate:  cfg.Monkey.TargetRate * 100,
			Mode:        mode,
		}
	}
	setupFailed := func(err error) error {
		session := newSession()
		session.Summary = agg.Summary()
		session.SetupError = err.Error()
		paths, reportErr := reporting.WriteAll(reportDir, cfg.Report.Formats, session)
		if reportErr != nil {
			logger.Error("Failed to write reports.", zap.Error(reportErr))
		}
		printSummary(out, session, paths)
		return err
	}

	// The browser outlives ctx so the in-flight action can finish after an
	// interrupt; it is shut down explicitly below.
	mgr, err := browser.NewManager(browser.Detach(ctx), logger, cfg.Browser, cfg.Network)
	if err != nil {
		return setupFailed(fmt.Errorf("failed to start browser: %w", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mgr.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Browser shutdown incomplete.", zap.Error(err))
		}
	}()

	sess, err := mgr.NewSession()
	if err != nil {
		return setupFailed(fmt.Errorf("failed to open browser session: %w", err))
	}

	opts := []orchestrator.Option{
		orchestrator.WithAggregator(agg),
		orchestrator.WithActionLogger(actionLog),
	}
	var shots *screenshot.Store
	if cfg.Screenshots.Enabled {
		shots = screenshot.New(afero.NewOsFs(), filepath.Join(cfg.Screenshots.Dir, sessionID), logger)
		opts = append(opts, orchestrator.WithScreenshots(shots))
	}
	runner, err := orchestrator.New(sess, cfg, logger, opts...)
	if err != nil {
		return setupFailed(err)
	}

	g, gctx := errgroup.WithContext(ctx)
	var srv *http.Server
	if cfg.Report.MetricsAddr != "" {
		srv = &http.Server{
			Addr:              cfg.Report.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("Serving metrics.", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	var (
		summary outcome.Summary
		runErr  error
	)
	g.Go(func() error {
		summary, runErr = runner.Run(gctx, urls)
		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
		return nil
	})
	groupErr := g.Wait()

	ctrl := runner.Controller()
	session := newSession()
	session.BaseWeights = ctrl.BaseWeights()
	session.FinalWeights = ctrl.Weights()
	session.SafeMass = ctrl.SafeMass()
	session.Adaptations = ctrl.Adaptations()
	session.Summary = summary
	if shots != nil {
		session.Screenshots = shots.Count()
	}
	paths, reportErr := reporting.WriteAll(reportDir, cfg.Report.Formats, session)
	if reportErr != nil {
		logger.Error("Failed to write reports.", zap.Error(reportErr))
	}
	printSummary(out, session, paths)

	if groupErr != nil && !errors.Is(groupErr, context.Canceled) {
		return groupErr
	}
	if runErr != nil {
		return runErr
	}
	return reportErr
}

func printSummary(out io.Writer, s *reporting.Session, paths []string) {
	sum := s.Summary
	fmt.Fprintf(out, "\nSession %s\n", s.ID)
	if s.SetupError != "" {
		fmt.Fprintf(out, "  setup failed: %s\n", s.SetupError)
		for _, p := range paths {
			fmt.Fprintf(out, "  report:       %s\n", p)
		}
		return
	}
	fmt.Fprintf(out, "  pages:        %d tested, %d failed to load\n", sum.PagesTested, sum.PagesFailed)
	fmt.Fprintf(out, "  actions:      %d (%d passed, %d failed)\n", sum.Stats.Total, sum.Stats.Succeeded, sum.Stats.Failed)
	verdict := "below target"
	if s.MetTarget() {
		verdict = "target met"
	}
	fmt.Fprintf(out, "  success rate: %.1f%% (target %.1f%%, %s)\n", sum.SuccessRate, s.TargetRate, verdict)
	fmt.Fprintf(out, "  adaptations:  %d, final weights %s\n", s.Adaptations, s.FinalWeights.Describe())
	for _, p := range paths {
		fmt.Fprintf(out, "  report:       %s\n", p)
	}
}
