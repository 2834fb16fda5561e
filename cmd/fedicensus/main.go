// Package main provides the entry point for the fedicensus CLI.
//
// fedicensus crawls federated social networks (Lemmy, Mastodon) starting
// from seed instances and produces a census report of users, posts, and
// activity across the reachable network.
//
// Usage:
//
//	fedicensus crawl <instance> [instance...]
//	fedicensus history --list
//
// See --help for all available options.
package main

// main is the entry point for fedicensus.
func main() {
	Execute()
}
