package jshost

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DOM is the parsed profile document. The body only becomes visible to
// scripts once the lifecycle attaches it.
type DOM struct {
	doc *goquery.Document
}

// Element is a read-only snapshot of one DOM node.
type Element struct {
	TagName     string
	ID          string
	ClassName   string
	TextContent string
	Attributes  map[string]string
}

// ParseDOM parses markup. An empty document still gets html/head/body.
func ParseDOM(markup string) (*DOM, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &DOM{doc: doc}, nil
}

// Title returns the document title.
func (d *DOM) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// Body returns the body element.
func (d *DOM) Body() *Element {
	sel := d.doc.Find("body").First()
	if sel.Length() == 0 {
		return nil
	}
	return newElement(sel)
}

// Query returns every element matching a CSS selector. Invalid selectors
// match nothing.
func (d *DOM) Query(selector string) (elements []*Element) {
	defer func() {
		// cascadia panics on selectors it cannot compile
		if recover() != nil {
			elements = nil
		}
	}()

	d.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		elements = append(elements, newElement(sel))
	})
	return elements
}

func newElement(sel *goquery.Selection) *Element {
	elem := &Element{
		TagName:     strings.ToUpper(goquery.NodeName(sel)),
		TextContent: sel.Text(),
		Attributes:  make(map[string]string),
	}
	if node := sel.Get(0); node != nil {
		for _, attr := range node.Attr {
			elem.Attributes[attr.Key] = attr.Val
		}
	}
	elem.ID = elem.Attributes["id"]
	elem.ClassName = elem.Attributes["class"]
	return elem
}

// GetAttribute retrieves an attribute value.
func (e *Element) GetAttribute(name string) string {
	return e.Attributes[name]
}
