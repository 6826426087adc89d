// Package strategy implements the ways a favicon can be located:
//
//   - Special domain: a configured override URL for one domain
//   - Service: a third-party favicon-by-domain image endpoint
//   - Well-known paths: /favicon.ico and friends, probed sequentially or raced
//   - HTML: the icon link declared by the domain's homepage
//
// Every strategy bounds each outbound request with its own timeout and
// reports failure as an error; ErrNotApplicable marks a strategy that had
// nothing to try.
package strategy
