// Package trackcfg loads and persists the .gittrack configuration that links
// a validation repository to its upstream counterpart.
//
// The configuration lives in an ini file discovered by walking up from the
// working directory to the repository top level. Relative roots are resolved
// against the directory holding the file, and the recorded upstream commit can
// be rewritten in place without disturbing surrounding keys.
package trackcfg
