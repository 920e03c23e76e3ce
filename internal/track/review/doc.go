// Package review rewrites the markers on tracked validation files. The
// update command advances a marker to a newer upstream commit, update-src
// re-points a marker whose upstream file moved, and set-notrack excludes a
// file from tracking entirely.
package review
