// Package marker reads and writes the per-file review markers that record
// upstream provenance inside validated source files.
//
// A marker is a single comment line near the top of a file, either
//
//	# validated: 2015-12-24 DS 6f4c42d9d9d2 wpilib/command/trigger.py
//
// recording the review date, reviewer initials, last reviewed upstream commit,
// and optional upstream paths, or
//
//	# notrack
//
// opting the file out of tracking. Markers are only recognized in the leading
// comment block so that commented-out code further down cannot masquerade as
// provenance. Writes go through a temporary file and rename so a crash never
// leaves a half-written source file behind.
package marker
