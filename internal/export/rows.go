// Package export renders audit rows as CSV or XLSX for offline review.
package export

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"docstore/internal/audit"
	"docstore/internal/domain"
)

// columns is the header row shared by every format.
var columns = []string{
	"Audit ID",
	"Timestamp",
	"Kind",
	"Operation",
	"Key Values",
	"Old Values",
	"New Values",
}

func auditToRow(a *domain.Audit) []string {
	return []string{
		a.ID.String(),
		a.Timestamp.UTC().Format(time.RFC3339),
		a.Kind,
		string(a.Operation),
		formatValues(a.KeyValues),
		formatValues(a.OldValues),
		formatValues(a.NewValues),
	}
}

// formatValues renders a value map as "Name=value; ..." in name order. Rows
// that cannot be decoded are written as stored.
func formatValues(raw []byte) string {
	values, err := audit.Decode(raw)
	if err != nil {
		return string(raw)
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + formatValue(values[name])
	}
	return strings.Join(parts, "; ")
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename replaces characters outside [a-zA-Z0-9_-] with _, collapses
// runs of underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a Content-Disposition file name of the form
// {prefix}_{YYYY-MM-DD}.{ext}.
func BuildFilename(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(prefix), now.Format("2006-01-02"), ext)
}
