// Package httpserver runs the HTTP front with sane timeouts and stops it
// gracefully when the application context ends.
package httpserver
