// Package favicon holds the domain types shared by the resolver and the
// HTTP front: the resolved icon, special-domain rules, sentinel errors and
// hostname normalization.
package favicon
