// Package config loads the proxy configuration from an optional YAML file
// and environment variables. It covers the listen port, logging, outbound
// fetch limits, the timeouts of each favicon strategy, the third-party
// favicon service and the special-domain override table.
package config
