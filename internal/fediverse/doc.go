// Package fediverse fetches per-instance metadata from federated servers.
//
// # Wire contract
//
// Every instance is probed with two logical HTTP GET calls:
//
//  1. Node information: the standardized /.well-known/nodeinfo discovery
//     document, followed to the advertised 2.0/2.1 schema URL. Instances
//     that do not serve the well-known document are retried once at the
//     fixed /nodeinfo/2.0.json path some software exposes directly.
//  2. Statistics: a software-family-specific API call chosen by the
//     nodeinfo software name through the StatsSource registry (Lemmy's
//     /api/v3/site, Mastodon's /api/v1/instance/peers).
//
// Both calls must succeed and parse for a fetch to succeed; the failing
// call's cause tags the failure. The fetcher performs no retries beyond
// the nodeinfo path fallback: a failed address is final for the crawl.
//
// # Failure handling
//
// Fetch never returns a Go error to the caller. Every problem is folded
// into a model.FetchFailure classified as unreachable, timeout, malformed
// response, or unsupported software, so one bad instance can never unwind
// the crawl.
package fediverse
