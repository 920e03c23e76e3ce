// Package workspace assembles the tracking context a command runs in: the
// located .gittrack configuration, the excluded commit set, and the pairing
// resolver over the two trees.
//
// It also enforces the upstream pin: history queries are only meaningful when
// the upstream checkout matches the commit recorded in the configuration.
package workspace
