package cache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const keySeparator = "::"

// Query identifies one cached aggregate: a namespace plus every parameter
// of the underlying lookup. Parameters left at their zero value are
// omitted from the key, so a builder default and an explicitly empty value
// hash identically across call sites.
type Query struct {
	namespace string
	params    map[string]string
}

// NewQuery starts a query in the given namespace.
func NewQuery(namespace string) *Query {
	return &Query{namespace: namespace, params: make(map[string]string)}
}

// Namespace returns the logical partition of the query.
func (q *Query) Namespace() string { return q.namespace }

// Str records a string parameter; empty means no preference.
func (q *Query) Str(name, value string) *Query {
	if value != "" {
		q.params[name] = value
	}
	return q
}

// Int records an integer parameter; zero means no preference.
func (q *Query) Int(name string, value int64) *Query {
	if value != 0 {
		q.params[name] = strconv.FormatInt(value, 10)
	}
	return q
}

// Ints records an id-set parameter; nil and empty mean no preference.
// Order of ids does not change the key.
func (q *Query) Ints(name string, values []int64) *Query {
	if len(values) == 0 {
		return q
	}
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, v := range sorted {
		parts[i] = strconv.FormatInt(v, 10)
	}
	q.params[name] = strings.Join(parts, ",")
	return q
}

// Bool records a flag parameter; false means no preference.
func (q *Query) Bool(name string, value bool) *Query {
	if value {
		q.params[name] = "1"
	}
	return q
}

// Key returns the deterministic store key: the namespace joined with a
// 64-bit hash over the canonical parameter encoding.
func (q *Query) Key() string {
	names := make([]string, 0, len(q.params))
	for name := range q.params {
		names = append(names, name)
	}
	sort.Strings(names)

	h := xxhash.New()
	for _, name := range names {
		_, _ = h.WriteString(name)
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(q.params[name])
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%s%s%x", q.namespace, keySeparator, h.Sum64())
}
