package restyutil

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/go-resty/resty/v2"
)

// headers carrying a vendor session are never written to dumps
var redactedHeaders = map[string]bool{
	"Authorization": true,
	"Cookie":        true,
	"Set-Cookie":    true,
}

const redacted = "<redacted>"

func writeHeaders(b *strings.Builder, headers http.Header) {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, value := range headers[name] {
			if redactedHeaders[http.CanonicalHeaderKey(name)] {
				value = redacted
			}
			fmt.Fprintf(b, "%s: %s\n", name, value)
		}
	}
}

func requestBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return "<no body>"
	}
	body, err := req.GetBody()
	if err != nil {
		return "<unreadable body: " + err.Error() + ">"
	}
	defer body.Close()
	contents, err := io.ReadAll(body)
	if err != nil {
		return "<unreadable body: " + err.Error() + ">"
	}
	return string(contents)
}

// formatHttpMessage renders a completed exchange as plain text, request
// first. The response line carries the redirect target when there is one.
func formatHttpMessage(res *resty.Response) string {
	var b strings.Builder

	b.WriteString("---- REQUEST ----\n\n")
	fmt.Fprintf(&b, "%s %s\n\n", res.Request.Method, res.Request.URL)
	if raw := res.Request.RawRequest; raw != nil {
		writeHeaders(&b, raw.Header)
	}
	b.WriteString("\n")
	b.WriteString(requestBody(res.Request.RawRequest))

	target := res.Request.URL
	if res.RawResponse != nil {
		if location, err := res.RawResponse.Location(); err == nil {
			target = location.String()
		}
	}
	b.WriteString("\n\n---- RESPONSE ----\n\n")
	fmt.Fprintf(&b, "%d %s\n\n", res.StatusCode(), target)
	writeHeaders(&b, res.Header())
	b.WriteString("\n")
	b.WriteString(res.String())
	return b.String()
}
