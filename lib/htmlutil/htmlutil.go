package htmlutil

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	"boxoffice-tracker/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	nethtml "golang.org/x/net/html"
)

var tracer = otel.Tracer("boxoffice.lib.htmlutil")

// GetText concatenates the text nodes below node in document order.
func GetText(node *nethtml.Node) string {
	var sb strings.Builder
	for n := range walk(node) {
		if n.Type == nethtml.TextNode {
			sb.WriteString(n.Data)
		}
	}
	return sb.String()
}

// walk yields node and its descendants depth first.
func walk(root *nethtml.Node) func(yield func(*nethtml.Node) bool) {
	return func(yield func(*nethtml.Node) bool) {
		if root == nil {
			return
		}
		stack := []*nethtml.Node{root}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(n) {
				return
			}
			for c := n.LastChild; c != nil; c = c.PrevSibling {
				stack = append(stack, c)
			}
		}
	}
}

type Anchor struct {
	Name string
	Href string
}

// GetAnchors resolves the href of every element in sel against base.
// Elements without an href or with one that does not parse are skipped.
func GetAnchors(ctx context.Context, base *url.URL, sel *goquery.Selection) []Anchor {
	_, span := tracer.Start(ctx, "htmlutil:anchors")
	defer span.End()

	anchors := []Anchor{}
	sel.Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}
		target, err := resolve(base, href)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid href")
			return
		}
		anchors = append(anchors, Anchor{
			Name: textutil.CollapseSpace(GetText(a.Get(0))),
			Href: target,
		})
	})
	span.SetAttributes(attribute.Int("anchors", len(anchors)))
	return anchors
}

func resolve(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	if base == nil {
		return ref.String(), nil
	}
	return base.ResolveReference(ref).String(), nil
}

// ScriptObject returns the object literal assigned to a javascript
// variable in an inline script, ex. `var gMovieData = {...};`. Html
// entities in the literal are unescaped.
func ScriptObject(page string, variable string) (string, error) {
	marker := fmt.Sprintf("var %s =", variable)
	start := strings.Index(page, marker)
	if start < 0 {
		return "", fmt.Errorf("%s not found", variable)
	}

	snippet := page[start+len(marker):]
	end := strings.Index(snippet, "</script>")
	if end < 0 {
		end = strings.Index(snippet, "};")
		if end < 0 {
			return "", fmt.Errorf("%s is not terminated", variable)
		}
		end++
	}

	raw := strings.TrimSpace(snippet[:end])
	raw = strings.TrimSpace(strings.TrimSuffix(raw, ";"))
	return html.UnescapeString(raw), nil
}

// InputValue returns the value attribute of the input with the given
// id or name.
func InputValue(doc *goquery.Document, idOrName string) (string, bool) {
	sel := doc.Find(fmt.Sprintf(`input[id="%s"]`, idOrName))
	if sel.Length() == 0 {
		sel = doc.Find(fmt.Sprintf(`input[name="%s"]`, idOrName))
	}
	if sel.Length() == 0 {
		return "", false
	}
	return sel.First().Attr("value")
}
