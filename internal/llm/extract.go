// Package llm turns a property's website into a short description using the
// OpenAI chat completions API.
package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// MaxContentLength caps the page text sent to the model.
	MaxContentLength = 10000
	minMainContent   = 500
	fetchTimeout     = 30 * time.Second
	userAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

var dropAlways = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true,
	atom.Iframe: true, atom.Embed: true, atom.Object: true,
}

var dropChrome = map[atom.Atom]bool{
	atom.Nav: true, atom.Header: true, atom.Footer: true, atom.Aside: true,
}

var chromeClasses = []string{"nav", "navigation", "sidebar", "footer", "header"}

// mainSelectors are tried in order.
var mainSelectors = []func(*html.Node) bool{
	func(n *html.Node) bool { return n.DataAtom == atom.Main },
	func(n *html.Node) bool { return n.DataAtom == atom.Article },
	func(n *html.Node) bool { return attr(n, "role") == "main" },
	func(n *html.Node) bool { return hasClass(n, "content") },
	func(n *html.Node) bool { return hasClass(n, "main-content") },
	func(n *html.Node) bool { return attr(n, "id") == "content" },
	func(n *html.Node) bool { return attr(n, "id") == "main" },
}

// FetchPage downloads a web page with a browser user agent.
func FetchPage(ctx context.Context, client *http.Client, pageURL string) (string, error) {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ExtractText returns the readable text of an HTML page. The first main
// content container with more than 500 characters wins; otherwise the body
// without navigation chrome is used. Output is whitespace-collapsed and cut
// to limit bytes with a trailing "...".
func ExtractText(page string, limit int) (string, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	removeAll(doc, func(n *html.Node) bool { return dropAlways[n.DataAtom] })

	var text string
	for _, match := range mainSelectors {
		if n := find(doc, match); n != nil {
			text = collapse(textOf(n))
			if len(text) > minMainContent {
				break
			}
		}
	}
	if len(text) < minMainContent {
		removeAll(doc, func(n *html.Node) bool {
			if dropChrome[n.DataAtom] {
				return true
			}
			for _, c := range chromeClasses {
				if hasClass(n, c) {
					return true
				}
			}
			return false
		})
		body := find(doc, func(n *html.Node) bool { return n.DataAtom == atom.Body })
		if body == nil {
			body = doc
		}
		text = collapse(textOf(body))
	}

	if limit > 0 && len(text) > limit {
		text = truncateUTF8(text, limit) + "..."
	}
	return text, nil
}

func removeAll(root *html.Node, drop func(*html.Node) bool) {
	var doomed []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && drop(n) {
			doomed = append(doomed, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	for _, n := range doomed {
		n.Parent.RemoveChild(n)
	}
}

func find(root *html.Node, match func(*html.Node) bool) *html.Node {
	if root.Type == html.ElementNode && match(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if n := find(c, match); n != nil {
			return n
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
