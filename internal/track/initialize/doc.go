// Package initialize implements the init command, which stamps an untracked
// validation file with its first review marker.
package initialize
