package filters

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// ProfileFilter is one accepted query entry: a category group plus the
// requested category name with its original casing and whitespace.
type ProfileFilter struct {
	Group CategoryGroup
	Name  string
}

// Bind translates a raw query string into a typed filter list. It is a pure
// function of the query and always succeeds:
//   - keys are matched case-insensitively against the category groups;
//     non-matching keys are skipped, never an error;
//   - blank or whitespace-only values are skipped; kept values preserve
//     their original casing and whitespace;
//   - output order is deterministic: groups in first-seen key order, values
//     in arrival order within each group; no sorting, no de-duplication.
//
// The raw query string is parsed here rather than through url.Values because
// url.Values is a map and loses arrival order.
func Bind(rawQuery string) []ProfileFilter {
	type bucket struct {
		group  CategoryGroup
		values []string
	}
	var order []*bucket
	seen := map[CategoryGroup]*bucket{}

	for _, seg := range strings.Split(rawQuery, "&") {
		if seg == "" {
			continue
		}
		key, value, _ := strings.Cut(seg, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		group, ok := LookupGroup(key)
		if !ok {
			continue
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		b, ok := seen[group]
		if !ok {
			b = &bucket{group: group}
			seen[group] = b
			order = append(order, b)
		}
		b.values = append(b.values, value)
	}

	out := make([]ProfileFilter, 0, len(order))
	for _, b := range order {
		for _, v := range b.values {
			out = append(out, ProfileFilter{Group: b.group, Name: v})
		}
	}
	return out
}

// BindRequest binds the filters of an in-flight request. Calling it without
// a request context is a programmer error and panics; a missing or empty
// query string is fine and yields an empty list.
func BindRequest(c *gin.Context) []ProfileFilter {
	if c == nil || c.Request == nil || c.Request.URL == nil {
		panic("filters: BindRequest called without a request context")
	}
	return Bind(c.Request.URL.RawQuery)
}
