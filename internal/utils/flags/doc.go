// Package flags provides helpers for binding yes/no style toggle flags and
// formatting restricted-choice usage strings on Cobra commands.
package flags
