package sql

import (
	"math"
	"strconv"
	"strings"
)

// Raw is an unescaped SQL boolean predicate, for example `email LIKE '%@x.com'`.
//
// Raw is a trust boundary: the builder copies it into the statement verbatim.
// Never build a Raw from user input without validating or quoting it first.
type Raw string

// NoLimit is the row cap used when only a start index is given. It is the
// largest value accepted by both MySQL and SQLite in a LIMIT clause.
const NoLimit uint64 = math.MaxInt64

// Sort orders accepted in Options.SortOrder.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Options holds the per-call read options of a relation operation.
// The zero value selects every column of every row in storage order.
type Options struct {
	// Attributes lists the columns to select. Empty means all columns.
	Attributes []string
	// Filter is appended as a WHERE (or AND) predicate.
	Filter Raw
	// SortBy is the column to order by.
	SortBy string
	// SortOrder is OrderAsc or OrderDesc. Anything else sorts ascending.
	SortOrder string
	// StartIndex is the number of rows to skip. nil means unset.
	StartIndex *uint64
	// Count caps the number of rows returned. nil means unset.
	Count *uint64
}

// Offset returns a StartIndex value.
func Offset(n uint64) *uint64 { return &n }

// Limit returns a Count value.
func Limit(n uint64) *uint64 { return &n }

// AttributesClause returns the select list for opts. Each attribute is prefixed
// with prefix (a table alias such as "users."); without attributes the result
// is prefix + "*".
func AttributesClause(opts Options, prefix string) string {
	if len(opts.Attributes) == 0 {
		return prefix + "*"
	}
	if prefix == "" {
		return strings.Join(opts.Attributes, ", ")
	}
	var b strings.Builder
	for i, attr := range opts.Attributes {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(prefix)
		b.WriteString(attr)
	}
	return b.String()
}

// FilterClause returns " WHERE <filter>", or " AND <filter>" when extend is set and
// the statement already has a WHERE clause. The filter is not escaped.
func FilterClause(opts Options, extend bool) string {
	if opts.Filter == "" {
		return ""
	}
	if extend {
		return " AND " + string(opts.Filter)
	}
	return " WHERE " + string(opts.Filter)
}

// SortClause returns the ORDER BY clause for opts, ascending unless SortOrder is desc.
func SortClause(opts Options) string {
	if opts.SortBy == "" {
		return ""
	}
	if strings.EqualFold(opts.SortOrder, OrderDesc) {
		return " ORDER BY " + opts.SortBy + " DESC"
	}
	return " ORDER BY " + opts.SortBy + " ASC"
}

// LimitClause returns the LIMIT clause for opts:
//
//	StartIndex and Count  " LIMIT <start>, <count>"
//	StartIndex only       " LIMIT <start>, NoLimit"
//	Count only            " LIMIT <count>"
//	neither               ""
func LimitClause(opts Options) string {
	switch {
	case opts.StartIndex != nil && opts.Count != nil:
		return " LIMIT " + strconv.FormatUint(*opts.StartIndex, 10) + ", " + strconv.FormatUint(*opts.Count, 10)
	case opts.StartIndex != nil:
		return " LIMIT " + strconv.FormatUint(*opts.StartIndex, 10) + ", " + strconv.FormatUint(NoLimit, 10)
	case opts.Count != nil:
		return " LIMIT " + strconv.FormatUint(*opts.Count, 10)
	default:
		return ""
	}
}
