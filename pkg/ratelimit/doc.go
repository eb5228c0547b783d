// Package ratelimit spaces out image downloads so a long album does not
// hammer the image host.
//
// Limiting is off by default. When rate_limit.requests_per_minute is set,
// New returns an Interval limiter built on golang.org/x/time/rate with a
// burst of one, so requests are evenly spread rather than front-loaded.
package ratelimit
