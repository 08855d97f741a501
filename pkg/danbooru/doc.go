// Package danbooru provides a minimal client for the Danbooru tags
// listing API.
//
// The client walks the paged /tags.json endpoint one page at a time
// with a fixed page size of 1000. It performs no retries of its own:
// HTTP 429 surfaces as a rate-limit error for the caller to back off
// on, an empty page is the authoritative end-of-data signal, and any
// other failure propagates unchanged.
//
// An optional username/API-key pair is encoded once into an HTTP Basic
// Authorization header and attached to every request for the run.
package danbooru
