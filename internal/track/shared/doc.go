// Package shared carries the dependency resolution helpers and option types
// common to the source tracking commands.
package shared
