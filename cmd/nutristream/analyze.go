package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/amobagan/nutristream/archive"
	"github.com/amobagan/nutristream/bootstrap"
	"github.com/amobagan/nutristream/credential"
	"github.com/amobagan/nutristream/logger"
	"github.com/amobagan/nutristream/observability"
	"github.com/amobagan/nutristream/stream"
	"github.com/amobagan/nutristream/wsclient"
)

func runAnalyze(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet(serviceName, stderr)
	barcode := fs.String("barcode", "", "product barcode to analyze")
	cfgPath := fs.String("config", "", "path to config.yml")
	token := fs.String("token", "", "bearer token (overrides the stored token)")
	archiveReport := fs.Bool("archive", false, "archive the completed report")
	timeout := fs.Duration("timeout", 0, "give up waiting for the report after this long (0 waits forever)")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *showVersion {
		return printVersion(stdout)
	}

	req, err := stream.NewRequest(*barcode)
	if err != nil {
		fs.Usage()
		return exitCode(err, stderr)
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return exitCode(err, stderr)
	}
	if *archiveReport {
		cfg.Archive.Enabled = true
	}
	return exitCode(analyze(ctx, cfg, req.Barcode, *token, *timeout, stdout, stderr), stderr)
}

func analyze(ctx context.Context, cfg *Config, barcode, token string, timeout time.Duration, stdout, stderr io.Writer) error {
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}

	shutdownTelemetry, err := observability.Setup(ctx, cfg.Telemetry, observability.Resource{
		ServiceName:    cfg.Name,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
	}, app.Logger)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			app.Logger.Warn("telemetry shutdown", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	creds, _, err := credential.Build(cfg.Credential, token)
	if err != nil {
		return err
	}
	client, err := wsclient.New(cfg.Transport, app.Logger)
	if err != nil {
		return err
	}
	metrics, err := observability.NewStreamMetrics(observability.Meter())
	if err != nil {
		return err
	}

	out := &printer{stdout: stdout, stderr: stderr}
	session := stream.New(cfg.Stream, client, creds,
		stream.WithLogger(app.Logger),
		stream.WithMetrics(metrics),
		stream.WithInitialSubject(barcode),
		stream.WithCallbacks(out.callbacks()),
	)

	var archiver *archive.Component
	if cfg.Archive.Enabled {
		// Registered first so it stops after the session.
		archiver = archive.NewComponent(cfg.Archive, app.Logger)
		if err := app.RegisterComponent(archiver); err != nil {
			return err
		}
	}
	if err := app.RegisterComponent(stream.NewComponent(session)); err != nil {
		return err
	}

	return app.RunTask(ctx, func(ctx context.Context) error {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		report, err := session.Await(ctx)
		if err != nil {
			return err
		}
		out.finish(report)

		if archiver == nil {
			return nil
		}
		snap := session.Snapshot()
		return archiver.Archive().Record(ctx, archive.Report{
			Barcode:   barcode,
			Content:   report,
			Chunks:    snap.Chunks,
			SessionID: session.ID(),
		})
	})
}

// printer writes streamed fragments to stdout as they arrive.
type printer struct {
	stdout io.Writer
	stderr io.Writer

	mu       sync.Mutex
	streamed strings.Builder
}

func (p *printer) callbacks() stream.Callbacks {
	return stream.Callbacks{
		OnChunk: func(fragment, _ string) {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.streamed.WriteString(fragment)
			_, _ = io.WriteString(p.stdout, fragment)
		},
		OnAnalysisFailed: func(diagnostic string) {
			fmt.Fprintf(p.stderr, "analysis failed: %s\n", diagnostic)
		},
		OnAuthRequired: func() {
			fmt.Fprintln(p.stderr, "no usable token found")
		},
	}
}

// finish prints the final report unless the streamed fragments already
// spelled it out.
func (p *printer) finish(report string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	streamed := p.streamed.String()
	switch {
	case streamed == "":
		_, _ = io.WriteString(p.stdout, report)
	case streamed != report:
		fmt.Fprintf(p.stdout, "\n\n--- final report ---\n%s", report)
	}
	if !strings.HasSuffix(report, "\n") {
		fmt.Fprintln(p.stdout)
	}
}
