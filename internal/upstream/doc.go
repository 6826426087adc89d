// Package upstream models the third-party favicon image service: the URL
// template used to query it, its current health as seen by the health
// checker, and a smoothed response time.
package upstream
