// Package model defines the core domain types for fedicensus.
//
// The types in this package follow a strict immutability rule: once a value
// is constructed it is never mutated. InstanceRecord and FetchFailure are
// created by the fetcher and handed to the aggregator; Report is built once
// at the end of a crawl. The only mutable crawl state (visited set, pending
// queue) lives in the crawler package, not here.
//
// CanonicalAddress is the identity key of the whole system: two raw
// references that normalize to the same CanonicalAddress are the same
// instance, and deduplication relies on nothing else (no DNS resolution,
// no IP-level identity).
package model
