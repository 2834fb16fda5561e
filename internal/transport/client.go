package transport

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"
)

// checkProxyTimeout bounds the SOCKS5 handshake check. This is only a
// connectivity probe against a local proxy, so it can be short.
const checkProxyTimeout = 2 * time.Second

// Client builds HTTP clients for the crawl. It optionally routes all
// connections through a SOCKS5 proxy and enforces a global request rate
// shared by every worker.
type Client struct {
	// timeout is the per-request timeout applied to HTTP clients.
	timeout time.Duration

	// userAgent is sent with every request.
	userAgent string

	// proxyAddress is the SOCKS5 proxy in "host:port" form, or empty.
	proxyAddress string

	// dialer is the SOCKS5 dialer when a proxy is configured.
	dialer proxy.Dialer

	// limiter caps outbound requests per second. Nil means unlimited.
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRequestRate caps outbound requests per second across all workers.
// Zero or negative leaves the rate unlimited.
func WithRequestRate(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			// Burst of 1 keeps the request stream smooth rather than bursty,
			// which is the polite shape for a crawler.
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithProxy routes all connections through a SOCKS5 proxy at the given
// "host:port" address.
func WithProxy(address string) Option {
	return func(c *Client) {
		c.proxyAddress = address
	}
}

// NewClient creates a Client with the given per-request timeout.
//
// When a proxy is configured the SOCKS5 dialer is created here, but no
// connection is made: the proxy does not need to be running yet, and
// object creation stays separate from network operations. Call
// CheckProxy to verify connectivity.
func NewClient(timeout time.Duration, opts ...Option) (*Client, error) {
	c := &Client{timeout: timeout}
	for _, opt := range opts {
		opt(c)
	}

	if c.proxyAddress != "" {
		if !isValidProxyAddress(c.proxyAddress) {
			return nil, ErrInvalidProxyAddress
		}
		// nil auth: a local SOCKS5 proxy typically requires none.
		dialer, err := proxy.SOCKS5("tcp", c.proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, err
		}
		c.dialer = dialer
	}

	return c, nil
}

// isValidProxyAddress checks for "host:port" form, including bracketed
// IPv6 literals like "[::1]:1080". A full URL parser is overkill here:
// no scheme, no path, just host and port.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" || port == "" {
		return false
	}

	n := 0
	for _, c := range port {
		if c < '0' || c > '9' {
			return false
		}
		n = n*10 + int(c-'0')
		if n > 65535 {
			return false
		}
	}
	return n >= 1
}

// HTTPClient returns an *http.Client wired with the configured timeout,
// proxy, rate limit, and User-Agent. The returned client is safe for
// concurrent use and shared by all crawl workers.
func (c *Client) HTTPClient() *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}

	if c.dialer != nil {
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return c.dialer.Dial(network, addr)
		}
	}

	var rt http.RoundTripper = transport
	rt = &headerTransport{base: rt, userAgent: c.userAgent}
	if c.limiter != nil {
		rt = &rateLimitedTransport{base: rt, limiter: c.limiter}
	}

	return &http.Client{
		Transport: rt,
		Timeout:   c.timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// CheckProxy verifies that the configured SOCKS5 proxy is running and
// actually speaks SOCKS5. It returns ProxyStatusOK when no proxy is
// configured.
//
// The check performs a real protocol handshake (version negotiation plus
// a CONNECT request) instead of just opening a TCP connection, so an
// HTTP proxy or an unrelated service on the port is detected before the
// crawl starts.
func (c *Client) CheckProxy(ctx context.Context) ProxyStatus {
	if c.dialer == nil {
		return ProxyStatusOK
	}

	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.proxyAddress)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(checkProxyTimeout)); err != nil {
		return ProxyStatusCannotConnect
	}

	return socks5Handshake(conn)
}

// SOCKS5 protocol constants.
const (
	socks5Version      = 0x05
	socks5AuthNone     = 0x00
	socks5AuthNoAccept = 0xFF
	socks5CmdConnect   = 0x01
	socks5AddrDomain   = 0x03

	// socks5CheckHost is a reserved documentation domain used for the
	// CONNECT probe. The connection is expected to fail; we only need the
	// proxy to process the request.
	socks5CheckHost = "host.invalid"
)

// socks5Handshake runs version negotiation and a CONNECT probe on an
// established connection and classifies the peer.
func socks5Handshake(conn net.Conn) ProxyStatus {
	// Version negotiation: offer no-auth only.
	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return ProxyStatusCannotConnect
	}

	authResp := make([]byte, 2)
	if _, err := io.ReadFull(conn, authResp); err != nil {
		return ProxyStatusWrongType
	}
	if authResp[0] != socks5Version || authResp[1] == socks5AuthNoAccept || authResp[1] != socks5AuthNone {
		return ProxyStatusWrongType
	}

	// CONNECT probe: any well-formed reply (success or failure code)
	// proves the peer is a functioning SOCKS5 proxy.
	req := []byte{socks5Version, socks5CmdConnect, 0x00, socks5AddrDomain, byte(len(socks5CheckHost))}
	req = append(req, []byte(socks5CheckHost)...)
	req = append(req, 0x00, 0x50) // port 80
	if _, err := conn.Write(req); err != nil {
		return ProxyStatusCannotConnect
	}

	resp := make([]byte, 4)
	if _, err := io.ReadFull(conn, resp); err != nil {
		return ProxyStatusWrongType
	}
	if resp[0] != socks5Version {
		return ProxyStatusWrongType
	}
	return ProxyStatusOK
}

// headerTransport injects the User-Agent header into every request,
// including redirects and subrequests.
type headerTransport struct {
	base      http.RoundTripper
	userAgent string
}

// RoundTrip implements http.RoundTripper.
func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent == "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}

// rateLimitedTransport blocks each request on a shared token bucket
// before passing it to the underlying transport. Waiting respects the
// request context, so cancelled crawls never queue behind the limiter.
type rateLimitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

// RoundTrip implements http.RoundTripper.
func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}
