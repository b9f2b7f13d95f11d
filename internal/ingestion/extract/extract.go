// Package extract turns HTML document bodies into the plain text the
// tokenizer indexes.
package extract

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

type Page struct {
	// Title is the text of the first <title> element, if any.
	Title string
	// Text is the visible text with whitespace collapsed to single spaces.
	Text string
	// Links holds every non-empty href in document order.
	Links []string
}

// HTML parses body and collects its visible text, skipping <script> and
// <style> content.
func HTML(body string) (*Page, error) {
	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	page := &Page{}
	var text []string
	var title []string
	var skipDepth, titleDepth int

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		skip := n.Type == html.ElementNode && (strings.EqualFold(n.Data, "script") || strings.EqualFold(n.Data, "style"))
		inTitle := n.Type == html.ElementNode && strings.EqualFold(n.Data, "title") && page.Title == "" && len(title) == 0
		if skip {
			skipDepth++
		}
		if inTitle {
			titleDepth++
		}
		if skipDepth == 0 {
			switch {
			case n.Type == html.TextNode && titleDepth > 0:
				title = append(title, strings.Fields(n.Data)...)
			case n.Type == html.TextNode:
				text = append(text, strings.Fields(n.Data)...)
			case n.Type == html.ElementNode && strings.EqualFold(n.Data, "a"):
				for _, a := range n.Attr {
					if strings.EqualFold(a.Key, "href") {
						if val := strings.TrimSpace(a.Val); val != "" {
							page.Links = append(page.Links, val)
						}
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if skip {
			skipDepth--
		}
		if inTitle {
			titleDepth--
			page.Title = strings.Join(title, " ")
		}
	}
	walk(root)
	page.Text = strings.Join(text, " ")
	return page, nil
}
