// Package naming provides consistent names for cluster machines.
//
// Machines follow the pattern {cluster}-{kind}-{n} where n starts at 1.
// New machines continue after the highest index already in use, so a name
// is never reused within a cluster even after a machine is removed.
package naming
