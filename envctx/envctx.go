// Package envctx derives base/head revisions from CI event context, the
// same heuristic examples/github_actions_integration.py applies before
// constructing a Config. It is a convenience for callers; the
// Orchestrator itself always takes base/head as explicit Config inputs.
package envctx

import "fmt"

// ResolveBaseHead returns the base and head revisions to diff for one CI
// event, given the event name, the PR base branch ref (empty outside
// pull_request/pull_request_target events), and the head SHA to diff
// against (passed through unchanged as head).
//
// For pull_request(_target) events, base compares against the PR's
// target branch on the remote (origin/<base_ref>); for push and any
// other event, base compares against the immediate parent commit
// (head^), matching determine_base_sha's push-vs-pull_request split.
func ResolveBaseHead(eventName, baseRef, headSHA string) (base, head string) {
	switch eventName {
	case "pull_request", "pull_request_target":
		return fmt.Sprintf("origin/%s", baseRef), headSHA
	default:
		return fmt.Sprintf("%s^", headSHA), headSHA
	}
}
