// Package ratelimit paces requests against the tags endpoint.
//
// A Pacer sleeps the configured delay between successive pages, and a
// BackoffStrategy decides the pause before re-requesting a page that
// answered 429. The default strategy is a fixed four-times-base pause
// with unbounded retries; an exponential strategy with a cap is
// available as a configuration choice.
package ratelimit
