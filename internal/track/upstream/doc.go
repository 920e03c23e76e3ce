// Package upstream manages the upstream repository the validation tree is
// compared against: checking out the recorded commit, pulling new changes,
// and recording which commit the tree currently tracks.
package upstream
