// Command nutristream requests a streamed nutrition analysis for a product
// barcode and prints the report as it arrives.
//
//	nutristream -barcode 5449000000996
//	nutristream login -token eyJhbGciOi...
//	nutristream history -barcode 5449000000996
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/amobagan/nutristream/errors"
	"github.com/amobagan/nutristream/version"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	exitAuth    = 3
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "login":
			return runLogin(ctx, args[1:], stdin, stdout, stderr)
		case "logout":
			return runLogout(args[1:], stdout, stderr)
		case "history":
			return runHistory(ctx, args[1:], stdout, stderr)
		}
	}
	return runAnalyze(ctx, args, stdout, stderr)
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// exitCode maps an error to a process exit code and prints it.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return exitOK
	}
	switch {
	case errors.IsCode(err, errors.ErrCodeAuthRequired),
		errors.IsCode(err, errors.ErrCodeTokenExpired),
		errors.IsCode(err, errors.ErrCodeInvalidToken),
		errors.IsCode(err, errors.ErrCodeUnauthorized):
		fmt.Fprintf(stderr, "nutristream: %v\nrun `nutristream login -token <token>` to sign in\n", err)
		return exitAuth
	case errors.IsCode(err, errors.ErrCodeInvalidInput),
		errors.IsCode(err, errors.ErrCodeMissingField):
		fmt.Fprintf(stderr, "nutristream: %v\n", err)
		return exitUsage
	}
	fmt.Fprintf(stderr, "nutristream: %v\n", err)
	return exitFailure
}

func printVersion(w io.Writer) int {
	fmt.Fprintln(w, version.UserAgent(serviceName))
	return exitOK
}
