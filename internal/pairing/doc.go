// Package pairing resolves the correspondence between files in the
// validation tree and their upstream counterparts.
//
// A recorded marker path is authoritative. Without one, the upstream file is
// assumed to live at the same relative path under the upstream root. When the
// assumed upstream file does not exist, Suggestions scans the upstream tree
// for files whose normalized base name matches, which catches most renames.
package pairing
