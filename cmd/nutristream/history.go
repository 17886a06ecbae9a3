package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/amobagan/nutristream/archive"
	"github.com/amobagan/nutristream/errors"
	"github.com/amobagan/nutristream/logger"
)

// runHistory prints an archived report, or lists archived barcodes when no
// barcode is given.
func runHistory(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("history", stderr)
	cfgPath := fs.String("config", "", "path to config.yml")
	barcode := fs.String("barcode", "", "barcode of the report to print")
	forget := fs.Bool("forget", false, "delete the archived report instead of printing it")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return exitCode(err, stderr)
	}
	cfg.Archive.Enabled = true
	cfg.ApplyDefaults()
	if cfg.Archive.Backend != archive.BackendRedis {
		return exitCode(errors.Validation("history needs the redis archive backend"), stderr)
	}

	log := logger.New(&cfg.Logging, cfg.Name)
	comp := archive.NewComponent(cfg.Archive, log)
	if err := comp.Start(ctx); err != nil {
		return exitCode(err, stderr)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = comp.Stop(stopCtx)
	}()

	return exitCode(history(ctx, comp.Archive(), *barcode, *forget, stdout), stderr)
}

func history(ctx context.Context, a *archive.Archive, barcode string, forget bool, stdout io.Writer) error {
	if barcode == "" {
		codes, err := a.Barcodes(ctx)
		if err != nil {
			return err
		}
		for _, c := range codes {
			fmt.Fprintln(stdout, c)
		}
		return nil
	}
	if forget {
		if err := a.Forget(ctx, barcode); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "forgot %s\n", barcode)
		return nil
	}

	r, err := a.Lookup(ctx, barcode)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "barcode %s, archived %s, %d chunks\n\n%s\n",
		r.Barcode, r.CompletedAt.Local().Format(time.RFC1123), r.Chunks, r.Content)
	return nil
}
