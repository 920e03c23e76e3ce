// Package gitcmd exposes a typed client for the git operations source
// tracking relies on.
//
// Client shells out through execshell and parses the results into structured
// values: follow-logs for individual files, file snapshots at a revision,
// revision resolution, and working tree maintenance such as checkout and pull.
package gitcmd
