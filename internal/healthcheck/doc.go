// Package healthcheck periodically probes the third-party favicon service
// and flips its health flag, so the resolver stops spending its time budget
// on a service that is down.
package healthcheck
