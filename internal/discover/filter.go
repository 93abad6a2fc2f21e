// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"net/url"
	"strings"
)

// nonResultPrefixes are result-page hrefs that point back into the search
// provider (refinements, pagination, settings).
var nonResultPrefixes = []string{"/search", "q=", "/?", "/advanced_search"}

// providerDomain is the search provider's own domain.
const providerDomain = "google.com"

// denylist holds fragments of non-informative destinations: social
// networks, review aggregators, video and shopping sites, documents, wikis,
// and image results.
var denylist = []string{
	"facebook", "instagram", "linkedin", "twitter", "ratemyprofessors",
	"coursicle", "youtube", "amazon", ".doc", ".pdf", "wiki", "imgres",
}

// FilterLinks applies the link filters in order: non-result and provider
// links are dropped, then denylisted destinations, then redirect wrappers
// are unwrapped. Unwrapped links that still point at a search page, or that
// are not absolute http(s) URLs, are dropped last.
func FilterLinks(raw []string) []string {
	var out []string
	for _, href := range raw {
		href = strings.TrimSpace(href)
		if href == "" || isNonResult(href) || isDenied(href) {
			continue
		}
		link := Unwrap(href)
		if strings.Contains(link, "/search") || !isAbsolute(link) {
			continue
		}
		out = append(out, link)
	}
	return out
}

func isNonResult(href string) bool {
	for _, p := range nonResultPrefixes {
		if strings.HasPrefix(href, p) {
			return true
		}
	}
	return strings.Index(href, providerDomain) > 0
}

func isDenied(href string) bool {
	l := strings.ToLower(href)
	for _, d := range denylist {
		if strings.Contains(l, d) {
			return true
		}
	}
	return false
}

// Unwrap returns the target of a provider redirect link such as
// "/url?q=<target>&sa=..." or ".../l/?uddg=<target>". Other links are
// returned unchanged.
func Unwrap(href string) string {
	for _, marker := range []string{"/url?", "uddg="} {
		i := strings.Index(href, marker)
		if i < 0 {
			continue
		}
		query := href[i+len(marker):]
		if marker == "uddg=" {
			query = marker + query
		}
		if vals, err := url.ParseQuery(query); err == nil {
			for _, key := range []string{"q", "url", "uddg"} {
				if v := vals.Get(key); v != "" {
					return v
				}
			}
		}
		// Malformed query: cut the target out by hand.
		if j := strings.Index(href, "/url?q="); j >= 0 {
			target := href[j+len("/url?q="):]
			if k := strings.Index(target, "&sa"); k >= 0 {
				target = target[:k]
			}
			return target
		}
	}
	return href
}

func isAbsolute(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
