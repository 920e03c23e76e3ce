// Package status classifies every trackable validation file against upstream
// history, reporting files that are up to date, stale, untracked, or marked
// notrack, with per-file failures isolated from the rest of the walk.
package status
