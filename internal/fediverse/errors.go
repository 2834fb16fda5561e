package fediverse

import "errors"

// Fetch errors. These sentinels steer failure classification; anything
// not wrapped in one falls back to network-level classification.
var (
	// ErrMalformed is returned when a response parses as the wrong shape
	// or is missing a required field.
	ErrMalformed = errors.New("malformed response")
	// ErrUnsupportedSoftware is returned when no statistics source exists
	// for the instance's software, or its version is below the floor.
	ErrUnsupportedSoftware = errors.New("unsupported software")
	// ErrHTTPStatus is returned when a request completes with a non-2xx
	// status code.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
	// ErrNoNodeInfo is returned when an instance serves neither the
	// well-known discovery document nor the fixed nodeinfo path.
	ErrNoNodeInfo = errors.New("no node information available")
)
