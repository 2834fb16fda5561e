package fediverse

import "strings"

// wellKnownNodeInfo is the /.well-known/nodeinfo discovery document.
// It maps schema identifiers to the URLs serving the actual document.
type wellKnownNodeInfo struct {
	Links []wellKnownLink `json:"links"`
}

// wellKnownLink is one entry of the discovery document.
type wellKnownLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// schemaLink returns the URL of the best supported nodeinfo schema,
// preferring 2.1 over 2.0, or an empty string if none is advertised.
func (w *wellKnownNodeInfo) schemaLink() string {
	for _, suffix := range []string{"/schema/2.1", "/schema/2.0"} {
		for _, link := range w.Links {
			if strings.HasSuffix(link.Rel, suffix) {
				return link.Href
			}
		}
	}
	if len(w.Links) > 0 {
		return w.Links[0].Href
	}
	return ""
}

// NodeInfo is the nodeinfo 2.0/2.1 document: the standardized
// self-description of a federated server's software and usage.
type NodeInfo struct {
	// Version is the nodeinfo schema version ("2.0" or "2.1").
	Version string `json:"version"`

	// Software identifies the server implementation.
	Software NodeInfoSoftware `json:"software"`

	// Protocols lists the federation protocols the server speaks.
	Protocols []string `json:"protocols"`

	// Usage carries the server's self-reported usage counters.
	Usage NodeInfoUsage `json:"usage"`

	// OpenRegistrations reports whether signups are open.
	OpenRegistrations bool `json:"openRegistrations"`

	// Metadata is free-form; some software puts the site name here.
	Metadata NodeInfoMetadata `json:"metadata"`
}

// NodeInfoSoftware names the server implementation and version.
type NodeInfoSoftware struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// NodeInfoUsage carries usage counters. All fields are optional on the
// wire; absent counters decode as zero.
type NodeInfoUsage struct {
	Users         NodeInfoUsers `json:"users"`
	LocalPosts    int64         `json:"localPosts"`
	LocalComments int64         `json:"localComments"`
}

// NodeInfoUsers carries user counters.
type NodeInfoUsers struct {
	Total          int64 `json:"total"`
	ActiveHalfyear int64 `json:"activeHalfyear"`
	ActiveMonth    int64 `json:"activeMonth"`
}

// NodeInfoMetadata holds the few free-form metadata fields we read.
type NodeInfoMetadata struct {
	NodeName string `json:"nodeName"`
}
