// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"strings"

	"golang.org/x/net/html"
)

// skipElements hold no visible text.
var skipElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "head": true,
}

// VisibleText returns the text nodes under n that a reader would see,
// separated by spaces.
func VisibleText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

// Anchors returns, for every <a> element under n, its visible text and,
// for mailto links, the address target. Empty entries are dropped.
func Anchors(n *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if t := strings.Join(strings.Fields(VisibleText(n)), " "); t != "" {
				out = append(out, t)
			}
			if addr := mailto(n); addr != "" {
				out = append(out, addr)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func mailto(a *html.Node) string {
	for _, attr := range a.Attr {
		if attr.Key != "href" {
			continue
		}
		v := strings.TrimSpace(attr.Val)
		if len(v) < len("mailto:") || !strings.EqualFold(v[:len("mailto:")], "mailto:") {
			return ""
		}
		v = v[len("mailto:"):]
		if i := strings.IndexByte(v, '?'); i >= 0 {
			v = v[:i]
		}
		return v
	}
	return ""
}
