// Package changes reports what happened upstream since a tracked file was
// last reviewed: the log command lists the commits touching its upstream
// paths, and the diff command renders the content difference between the
// reviewed commit and the current upstream head.
package changes
