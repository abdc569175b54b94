// Package engine defines the transform engine contract used by the job
// supervisor: an Engine runs one Request at a time per id, reports progress
// and exactly one terminal outcome to a Listener, and can be cancelled by id.
//
// Runs is shared bookkeeping for engines that map request ids to cancel
// functions. Concrete engines live in subpackages.
package engine
