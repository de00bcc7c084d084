// Package provider contains the metadata catalog clients.
//
// The Provider interface is defined in internal/metadata
// (metadata.Provider), following the Go convention of defining interfaces
// where they are consumed. Each sub-package implements it for one catalog:
// musicbrainz (discography), genius (lyrics), lastfm (scrobble tags).
package provider
