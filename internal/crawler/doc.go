// Package crawler implements the breadth-style federation crawl.
//
// The crawl is a worklist traversal of the federation graph: seed
// addresses are dispatched to a bounded pool of fetch workers, every
// successful fetch contributes the peers the instance advertises, and
// newly seen addresses join the worklist. The Frontier guarantees each
// canonical address is dispatched at most once per crawl, so cycles in
// the federation graph terminate naturally.
//
// The Engine drives the traversal and owns its termination condition:
// the crawl is complete when no work is pending and no fetch is in
// flight. Cancellation of the engine's context stops dispatching and
// finalizes a partial report marked as interrupted.
package crawler
