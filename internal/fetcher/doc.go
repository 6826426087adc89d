// Package fetcher performs the single outbound GET every favicon strategy is
// built on. Each call carries its own timeout and a browser User-Agent, and
// returns the status, headers and a size-capped body without retrying.
package fetcher
