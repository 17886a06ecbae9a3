// Package bootstrap runs a nutristream binary through a uniform lifecycle:
// validate config, start components, run hooks, do the work, then stop
// components in reverse order within a graceful timeout.
//
// Long-running processes such as the development backend use Run, which
// blocks until SIGINT/SIGTERM. One-shot tools such as the CLI use RunTask.
package bootstrap
