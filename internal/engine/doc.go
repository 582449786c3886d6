// Package engine runs one motif search attempt: a Gibbs sampler over site
// placements, column sampling over the window, and hypergeometric cutoff
// optimization between sequence scores and the expression search space.
//
// It never imports app, writers, cli, or pipeline; keep it domain-only.
// Archive lookups go through the Checker interface.
package engine
