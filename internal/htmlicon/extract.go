package htmlicon

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var relRank = map[string]int{
	"icon":             0,
	"shortcut icon":    1,
	"apple-touch-icon": 2,
}

// Extract returns the absolute URL of the preferred icon link in page.
func Extract(page []byte, pageURL *url.URL) (*url.URL, bool) {
	if pageURL == nil {
		return nil, false
	}

	base := pageURL
	best := -1
	var found *url.URL

	z := html.NewTokenizer(bytes.NewReader(page))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}

		name, hasAttr := z.TagName()
		if !hasAttr {
			continue
		}

		switch atom.Lookup(name) {
		case atom.Base:
			if href := attr(z, "href"); href != "" {
				if u, err := pageURL.Parse(href); err == nil {
					base = u
				}
			}

		case atom.Link:
			rel, href := linkAttrs(z)
			rank, ok := relRank[normalizeRel(rel)]
			if !ok || (best != -1 && rank >= best) {
				continue
			}

			u, ok := resolve(base, href)
			if !ok {
				continue
			}

			best, found = rank, u
			if rank == 0 {
				return found, true
			}
		}
	}

	return found, found != nil
}

func linkAttrs(z *html.Tokenizer) (rel, href string) {
	for {
		key, val, more := z.TagAttr()
		switch string(key) {
		case "rel":
			rel = string(val)
		case "href":
			href = string(val)
		}
		if !more {
			return rel, href
		}
	}
}

func attr(z *html.Tokenizer, name string) string {
	for {
		key, val, more := z.TagAttr()
		if string(key) == name {
			return string(val)
		}
		if !more {
			return ""
		}
	}
}

func normalizeRel(rel string) string {
	return strings.Join(strings.Fields(strings.ToLower(rel)), " ")
}

// resolve makes href absolute. Only http(s) results are usable by the fetcher.
func resolve(base *url.URL, href string) (*url.URL, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return nil, false
	}

	u, err := base.Parse(href)
	if err != nil {
		return nil, false
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, false
	}

	return u, true
}
