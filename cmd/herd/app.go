package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-logr/logr"
	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/jbweber/herd/api/v1alpha1"
	"github.com/jbweber/herd/internal/batch"
	"github.com/jbweber/herd/internal/config"
	"github.com/jbweber/herd/internal/loader"
	"github.com/jbweber/herd/internal/metrics"
	"github.com/jbweber/herd/internal/output"
	"github.com/jbweber/herd/internal/pve"
	"github.com/jbweber/herd/internal/report"
	"github.com/jbweber/herd/internal/vm"
)

// app carries what every subcommand needs once the configuration is loaded.
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	log     logr.Logger
	metrics *metrics.Recorder

	noHeaders bool

	stdin  io.Reader
	stdout io.Writer

	// stderr is shared by the logger, the progress printer and cobra.
	stderr      io.Writer
	stderrColor bool
}

// lockedWriter serializes writes from concurrent producers, so log records
// and progress lines never interleave mid-line.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newLockedWriter(w io.Writer) *lockedWriter {
	return &lockedWriter{w: w}
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// login connects to the API and exchanges the configured credentials for a
// session.
func (a *app) login(ctx context.Context) (*pve.Client, *pve.Session, error) {
	client, err := pve.New(a.cfg.URL,
		pve.WithInsecureTLS(a.cfg.Insecure),
		pve.WithTimeout(a.cfg.RequestTimeout),
		pve.WithObserver(a.metrics),
	)
	if err != nil {
		return nil, nil, err
	}

	password, err := a.password()
	if err != nil {
		return nil, nil, err
	}

	user := a.cfg.LoginName()
	a.log.V(1).Info("logging in", "url", client.BaseURL(), "user", user)

	session, err := client.Login(ctx, user, password)
	if err != nil {
		return nil, nil, fmt.Errorf("login failed: %w", err)
	}
	return client, session, nil
}

// password returns the configured password, or prompts for it when stdin is
// a terminal.
func (a *app) password() (string, error) {
	if a.cfg.Auth.Password != "" {
		return a.cfg.Auth.Password, nil
	}

	f, ok := a.stdin.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return "", errors.New("no password configured: use --password, HERD_AUTH_PASSWORD or auth.password in the config file")
	}

	_, _ = fmt.Fprintf(a.stderr, "Password for %s: ", a.cfg.LoginName())
	secret, err := term.ReadPassword(int(f.Fd()))
	_, _ = fmt.Fprintln(a.stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(secret) == 0 {
		return "", errors.New("empty password")
	}
	return string(secret), nil
}

// runSettings are the per-run overrides a manifest may carry.
type runSettings struct {
	name        string
	concurrency int
	statusFile  string

	// manifest, when set, receives the status instead of a generated one.
	manifest *v1alpha1.Batch
}

// runBatch validates job, runs it and renders the result. It returns an
// error when the batch could not start or when any target did not succeed.
func (a *app) runBatch(ctx context.Context, job batch.Job, rs runSettings) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid batch: %w", err)
	}

	formatter, err := output.NewFormatter(output.Options{Format: output.Format(a.cfg.Output), NoHeaders: a.noHeaders})
	if err != nil {
		return err
	}

	concurrency := a.cfg.Concurrency
	if rs.concurrency > 0 {
		concurrency = rs.concurrency
	}

	client, session, err := a.login(ctx)
	if err != nil {
		return err
	}

	printer := report.NewPrinter(a.stderr, a.stderrColor)
	dispatcher := batch.NewDispatcher(
		vm.NewPipeline(client, session, a.cfg.Poll.Retry()),
		batch.WithConcurrency(concurrency),
		batch.WithPipelineTimeout(a.cfg.PipelineTimeout),
		batch.WithReporter(printer),
		batch.WithObserver(a.metrics),
	)

	result := dispatcher.Run(logr.NewContext(ctx, a.log), job)
	printer.Summary(result)

	manifest := rs.manifest
	if manifest == nil {
		manifest = result.Manifest(rs.name, job, dispatcher.Concurrency())
	} else {
		result.ApplyStatus(manifest)
	}
	rendered, err := formatter.FormatBatch(manifest)
	if err != nil {
		return fmt.Errorf("failed to format result: %w", err)
	}
	_, _ = fmt.Fprint(a.stdout, rendered)

	var errs []error
	if rs.statusFile != "" {
		if err := loader.SaveToFile(manifest, rs.statusFile); err != nil {
			errs = append(errs, err)
		}
	}
	if a.cfg.MetricsFile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
			errs = append(errs, err)
		}
	}
	if !result.OK() {
		errs = append(errs, fmt.Errorf("batch %s: %s", manifest.Name, result.Summary()))
	}
	return errors.Join(errs...)
}

// node returns the node to target, failing when none is configured.
func (a *app) node() (string, error) {
	if a.cfg.Node == "" {
		return "", errors.New("no node configured: use --node, HERD_NODE or node in the config file")
	}
	return a.cfg.Node, nil
}
