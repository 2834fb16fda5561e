// Package transport builds the HTTP client the crawl uses for all
// outbound requests.
//
// The client is plain net/http with three concerns layered on: a
// per-request timeout, an optional SOCKS5 proxy (with a protocol-level
// handshake check so a misconfigured proxy fails before the crawl
// starts), and an optional global token-bucket rate limit shared by all
// workers. Everything above this package sees only *http.Client.
package transport
