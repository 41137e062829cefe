package aggregator

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// Advisory component groups used for report grouping only
const (
	ComponentLinks      = "links"
	ComponentButtons    = "buttons"
	ComponentForms      = "forms"
	ComponentImages     = "images"
	ComponentHeadings   = "headings"
	ComponentNavigation = "navigation"
	ComponentLandmarks  = "landmarks"
	ComponentTables     = "tables"
	ComponentMedia      = "media"
	ComponentFrames     = "frames"
	ComponentDocument   = "document"
	ComponentOther      = "other"
)

var leadingTag = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-]*`)

// ClassifyComponent guesses which UI component a finding belongs to from
// its first markup snippet, falling back to the last selector step. The
// result is advisory and never affects identity, ordering or the gate.
func ClassifyComponent(evidence []models.Evidence) string {
	for _, e := range evidence {
		if e.HTML == "" {
			continue
		}
		if node := firstElement(e.HTML); node != nil {
			return classifyElement(node.Data, attr(node, "role"), attr(node, "type"))
		}
	}

	for _, e := range evidence {
		if tag := selectorTag(e.Selector); tag != "" {
			return classifyElement(tag, "", "")
		}
	}

	return ComponentOther
}

// firstElement parses a snippet in body context and returns its first element
func firstElement(snippet string) *html.Node {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(snippet), context)
	if err != nil {
		return nil
	}
	for _, n := range nodes {
		if found := findElement(n); found != nil {
			return found
		}
	}
	return nil
}

func findElement(n *html.Node) *html.Node {
	if n.Type == html.ElementNode {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.ToLower(strings.TrimSpace(a.Val))
		}
	}
	return ""
}

// selectorTag extracts the element name of the last compound selector
func selectorTag(selector string) string {
	selector = NormalizeSelector(selector)
	if selector == "" || selector == models.SelectorPlaceholder {
		return ""
	}
	fields := strings.Fields(selector)
	last := fields[len(fields)-1]
	return strings.ToLower(leadingTag.FindString(last))
}

func classifyElement(tag, role, inputType string) string {
	switch role {
	case "button":
		return ComponentButtons
	case "link":
		return ComponentLinks
	case "img", "presentation":
		return ComponentImages
	case "navigation", "menu", "menubar", "tablist":
		return ComponentNavigation
	case "main", "banner", "contentinfo", "complementary", "region", "search":
		return ComponentLandmarks
	case "heading":
		return ComponentHeadings
	case "textbox", "checkbox", "radio", "combobox", "listbox", "switch", "slider":
		return ComponentForms
	}

	switch strings.ToLower(tag) {
	case "a":
		return ComponentLinks
	case "button":
		return ComponentButtons
	case "input":
		if inputType == "button" || inputType == "submit" || inputType == "reset" {
			return ComponentButtons
		}
		if inputType == "image" {
			return ComponentImages
		}
		return ComponentForms
	case "select", "textarea", "label", "form", "fieldset", "legend", "option":
		return ComponentForms
	case "img", "svg", "picture", "area", "canvas":
		return ComponentImages
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return ComponentHeadings
	case "nav":
		return ComponentNavigation
	case "main", "header", "footer", "aside", "section":
		return ComponentLandmarks
	case "table", "thead", "tbody", "tr", "th", "td", "caption":
		return ComponentTables
	case "video", "audio", "track":
		return ComponentMedia
	case "iframe", "frame", "object", "embed":
		return ComponentFrames
	case "html", "head", "title", "meta", "body":
		return ComponentDocument
	default:
		return ComponentOther
	}
}
