// Package handler implements the favicon HTTP endpoints. It turns URLs and
// path segments into normalized domains, asks the resolver for the icon, and
// maps resolver errors onto status codes.
package handler
