package semantic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/orsinium-labs/stopwords"
)

var enStopwords = stopwords.MustGet("en")

// normalizePredicate lowercases, splits on non-alphanumeric runs, drops
// stopword tokens, and rejoins with underscores. The Completer is already
// prompted to return snake_case predicates; this is a second line of
// defense for output that ignores that prompt, matching teacher's
// belt-and-suspenders validation style.
func normalizePredicate(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return !(r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		if enStopwords.Contains(f) && len(fields) > 1 {
			continue
		}
		kept = append(kept, f)
	}
	if len(kept) == 0 {
		return raw
	}
	return strings.Join(kept, "_")
}

// renderObjectValue produces the stable textual form used in the embedding
// rendering "{subject_name} {predicate}: {object_rendering}".
func renderObjectValue(v any, unit string) string {
	s, ok := v.(string)
	if !ok {
		s = stringifyAny(v)
	}
	if unit != "" {
		return s + " " + unit
	}
	return s
}

func stringifyAny(v any) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
