// Package htmlicon finds the favicon a page declares in its markup.
//
// The page is scanned token by token; no DOM tree is built. Link elements
// are ranked by their rel attribute:
//
//  1. icon
//  2. shortcut icon
//  3. apple-touch-icon
//
// The best-ranked href is resolved against the page URL (or the page's
// <base href>, when present).
package htmlicon
