// Package emby talks to an Emby-compatible media server over HTTP.
//
// The Client wraps the items API (paged directory listings, root path
// resolution) and builds direct-play stream URLs. Lister adapts one source's
// root onto the remote.Lister contract consumed by the snapshot walker.
// Responses are classified into the shared error taxonomy: 5xx and transport
// failures are transient, 4xx permanent.
package emby
