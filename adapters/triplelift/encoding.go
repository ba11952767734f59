package triplelift

import (
	"net/url"
	"strings"
)

// queryBuilder appends key=value pairs, skipping empty values.
type queryBuilder struct {
	b strings.Builder
}

func (q *queryBuilder) add(key, value string) {
	if value == "" {
		return
	}
	q.b.WriteString(key)
	q.b.WriteByte('=')
	q.b.WriteString(encodeURIComponent(value))
	q.b.WriteByte('&')
}

func (q *queryBuilder) String() string {
	return strings.TrimSuffix(q.b.String(), "&")
}

var componentUnescapes = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent escapes everything except A-Z a-z 0-9 and -_.!~*'().
func encodeURIComponent(s string) string {
	return componentUnescapes.Replace(url.QueryEscape(s))
}

const upperHex = "0123456789ABCDEF"

// encodeURI escapes a whole URL, leaving its reserved characters intact.
func encodeURI(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if keepInURI(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&15])
	}
	return b.String()
}

func keepInURI(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte(";,/?:@&=+$-_.!~*'()#", c) >= 0
}

// createTrackPixelHTML returns a hidden 1x1 image loading pixelURL, or "" for an empty URL.
func createTrackPixelHTML(pixelURL string) string {
	if pixelURL == "" {
		return ""
	}
	return `<div style="position:absolute;left:0px;top:0px;visibility:hidden;">` +
		`<img src="` + encodeURI(pixelURL) + `"></div>`
}
