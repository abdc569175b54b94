// Package preflight provides readiness checks for the binaries, directories
// and services vidpress depends on.
//
// The daemon runs RunAll at startup and logs every failed check; the CLI
// "vidpress status" command renders the same results as a table. Checks never
// mutate state: the ntfy probe hits the server health endpoint rather than
// publishing to the topic.
package preflight
