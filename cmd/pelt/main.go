package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/peltload/pelt/internal/config"
	"github.com/peltload/pelt/internal/httpclient"
	"github.com/peltload/pelt/internal/metrics"
	"github.com/peltload/pelt/internal/monitor"
	"github.com/peltload/pelt/internal/output"
	"github.com/peltload/pelt/internal/runner"
	"github.com/peltload/pelt/internal/tracing"
)

const progressInterval = time.Second

// exit is swapped out in tests.
var exit = os.Exit

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	var connOpts []httpclient.ConnectionOption
	if provider.Enabled() {
		connOpts = append(connOpts, httpclient.WithTracer(provider.Tracer()))
	}
	conn, err := httpclient.NewConnection(cfg, connOpts...)
	if err != nil {
		return err
	}

	var executor runner.Executor = conn
	if cfg.LogErrors {
		executor = &loggingExecutor{
			next:   executor,
			logger: newFailureLogger(os.Stderr),
		}
	}

	r, err := runner.New(runner.Options{
		Executor:      executor,
		Workers:       cfg.Workers,
		TotalRequests: cfg.Requests,
		Duration:      cfg.Duration,
		Rate:          cfg.Rate,
	})
	if err != nil {
		return err
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	collector := metrics.NewCollector()

	var mon monitor.Monitor
	var progress *output.ProgressReporter
	if cfg.NoTUI || cfg.JSONOutput {
		mon = monitor.NewHeadless(collector, interrupt)
		if !cfg.JSONOutput {
			progress = output.NewProgressReporter(collector, int64(cfg.Requests), progressInterval, os.Stderr)
			progress.Start()
		}
	} else {
		dash, err := monitor.NewDashboard(collector, monitor.Config{
			TargetURL: cfg.TargetURL,
			Method:    cfg.Method,
			Workers:   cfg.Workers,
			Total:     int64(cfg.Requests),
			Duration:  cfg.Duration,
			Rate:      cfg.Rate,
			Timeout:   cfg.Timeout,
			FPS:       cfg.FPS,
		}, interrupt)
		if err != nil {
			// No usable terminal; degrade to the headless monitor.
			mon = monitor.NewHeadless(collector, interrupt)
		} else {
			mon = dash
		}
	}

	collector.Start()
	start := time.Now()

	var result runner.Result
	runDone := make(chan struct{})
	go func() {
		result = r.Run(ctx)
		close(runDone)
	}()

	collected, interrupted := mon.Run(r.Outcomes())
	if progress != nil {
		progress.Stop()
		fmt.Fprintln(os.Stderr)
	}

	if interrupted {
		r.Cancel()
		summary := metrics.Summarize(collected, time.Since(start))
		if err := printSummary(stdout, cfg, summary); err != nil {
			return err
		}
		exit(0)
		return nil
	}

	<-runDone
	summary := metrics.Summarize(collected, result.Duration)
	return printSummary(stdout, cfg, summary)
}

func printSummary(w io.Writer, cfg *config.Config, s metrics.Summary) error {
	if cfg.JSONOutput {
		return output.PrintJSONSummary(w, s)
	}
	output.PrintSummary(w, s)
	return nil
}

// loggingExecutor reports failed outcomes to stderr without changing
// what flows to the collector.
type loggingExecutor struct {
	next   runner.Executor
	logger *failureLogger
}

func (e *loggingExecutor) Do(ctx context.Context) metrics.Outcome {
	outcome := e.next.Do(ctx)
	if outcome.Failed() {
		e.logger.LogFailure(outcome.Err)
	}
	return outcome
}
