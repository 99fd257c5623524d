// Package pipeline drives the loader build: an ordered list of stages run by
// a fold that stops at the first failure, a linear state machine
//
//	start -> tools_checked -> compiled -> linked -> imaged -> done
//
// with failed reachable from any running state, and a Report of what ran.
// Observers hook into stage and build completion for metrics and history.
package pipeline
