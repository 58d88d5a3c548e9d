package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/arthur-debert/nanotree/nanotree/hierarchy"
	"github.com/arthur-debert/nanotree/types"
)

// Find searches every reachable node of s. Results are ordered by score,
// ties keeping display order.
func Find(s *hierarchy.Store, opts Options) []Result {
	results := []Result{}
	if opts.Query == "" {
		return results
	}

	fields := opts.Fields
	if len(fields) == 0 {
		fields = []Field{FieldName, FieldLocation}
	}
	marker := opts.Marker
	if marker == "" {
		marker = "**"
	}

	_ = s.Walk(func(n types.Node, _ int) error {
		if opts.Kind != "" && n.Kind != opts.Kind {
			return nil
		}
		if r, ok := match(n, fields, opts, marker); ok {
			results = append(results, r)
		}
		return nil
	})

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if opts.MaxResults > 0 && len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}
	return results
}

func match(n types.Node, fields []Field, opts Options, marker string) (Result, bool) {
	result := Result{Node: n, Matches: map[Field]string{}}
	for _, field := range fields {
		var value string
		switch field {
		case FieldName:
			value = n.Name
		case FieldLocation:
			value = n.Location
		default:
			continue
		}

		spans := findMatches(value, opts.Query, opts.CaseSensitive, opts.ExactMatch)
		if len(spans) == 0 {
			continue
		}

		text := value
		if opts.Highlight {
			text = highlight(value, spans, marker)
		}
		result.Matches[field] = text

		if score := scoreOf(value, spans, field); score > result.Score {
			result.Score = score
		}
	}
	return result, len(result.Matches) > 0
}

// span is a match as byte offsets into the original text
type span struct{ start, end int }

// findMatches returns every non-overlapping occurrence of query in text.
// Windows hold as many runes as query and are compared with simple case
// folding, so offsets always point into text itself.
func findMatches(text, query string, caseSensitive, exact bool) []span {
	if query == "" {
		return nil
	}
	same := func(a, b string) bool {
		if caseSensitive {
			return a == b
		}
		return strings.EqualFold(a, b)
	}
	if exact {
		if same(text, query) {
			return []span{{0, len(text)}}
		}
		return nil
	}

	runes := utf8.RuneCountInString(query)
	var spans []span
	for i := 0; i < len(text); {
		end, n := i, 0
		for n < runes && end < len(text) {
			_, size := utf8.DecodeRuneInString(text[end:])
			end += size
			n++
		}
		if n < runes {
			break
		}
		if same(text[i:end], query) {
			spans = append(spans, span{i, end})
			i = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return spans
}

// scoreOf favours name matches, whole-field and prefix matches, and matches
// covering most of the field
func scoreOf(value string, spans []span, field Field) float64 {
	first := spans[0]
	if first.start == 0 && first.end == len(value) {
		return 1.0
	}

	score := 0.5
	if field == FieldName {
		score = 0.7
	}
	if first.start == 0 {
		score += 0.2
	}
	if float64(first.end-first.start)/float64(len(value)) > 0.5 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func highlight(text string, spans []span, marker string) string {
	var b strings.Builder
	last := 0
	for _, m := range spans {
		b.WriteString(text[last:m.start])
		b.WriteString(marker)
		b.WriteString(text[m.start:m.end])
		b.WriteString(marker)
		last = m.end
	}
	b.WriteString(text[last:])
	return b.String()
}
