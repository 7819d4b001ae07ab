package eml

import (
	"net/url"
	"strings"
)

// ConvertUserIDs rewrites <userId directory="..."> values into absolute URLs
// resolved against their directory. Values that are already URLs, and
// directories that are not URLs, are left alone. It returns the number of
// rewritten elements.
func (d *Document) ConvertUserIDs() int {
	changed := 0
	for _, n := range d.Elements("userId") {
		dir := n.SelectAttrValue("directory", "")
		base, ok := parseURL(dir)
		if !ok {
			continue
		}
		value := strings.TrimSpace(n.Text())
		if value == "" {
			continue
		}
		if _, isURL := parseURL(value); isURL {
			continue
		}
		ref, err := url.Parse(value)
		if err != nil {
			continue
		}
		n.SetText(base.ResolveReference(ref).String())
		changed++
	}
	return changed
}

func parseURL(s string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, false
	}
	return u, true
}
