// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging and lifecycle events via ShellExecutor and
// exposes OSCommandRunner for default process execution. Source tracking
// shells out to git for every repository query, so all git invocations flow
// through this package to keep them observable and testable.
package execshell
