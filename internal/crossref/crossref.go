// Package crossref checks extracted equipment specifications against a
// free-text reference corpus obtained from the web-search answer engine.
// The test is deliberately weak: case-insensitive whole-value containment,
// no fuzzy matching. A value the corpus phrases differently will be
// reported as a mismatch; that limitation is accepted.
package crossref

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/solarqa/plancheck/internal/fetch"
	"github.com/solarqa/plancheck/internal/htmltext"
	"github.com/solarqa/plancheck/internal/websearch"
)

// NotFound is the sentinel reported as the validated value when the corpus
// does not contain the extracted value.
const NotFound = "Not found"

// Match statuses.
const (
	StatusMatch    = "Match"
	StatusMismatch = "Mismatch"
)

// FieldResult is one specification's containment verdict.
type FieldResult struct {
	Specification string `json:"specification"`
	Extracted     string `json:"extracted_value"`
	Validated     string `json:"validated_value"`
	Status        string `json:"status"`
}

// Validate runs the containment test for every non-empty leaf of the
// structured extraction. Sections and fields are processed in sorted order
// so the output is deterministic.
func Validate(structured map[string]map[string]string, corpus string) map[string][]FieldResult {
	folded := strings.ToLower(corpus)
	out := make(map[string][]FieldResult, len(structured))

	sections := make([]string, 0, len(structured))
	for s := range structured {
		sections = append(sections, s)
	}
	sort.Strings(sections)

	for _, section := range sections {
		fields := structured[section]
		names := make([]string, 0, len(fields))
		for f := range fields {
			names = append(names, f)
		}
		sort.Strings(names)

		results := make([]FieldResult, 0, len(names))
		for _, name := range names {
			value := strings.TrimSpace(fields[name])
			if value == "" {
				continue
			}
			r := FieldResult{Specification: name, Extracted: value}
			if strings.Contains(folded, strings.ToLower(value)) {
				r.Status = StatusMatch
				r.Validated = value
			} else {
				r.Status = StatusMismatch
				r.Validated = NotFound
			}
			results = append(results, r)
		}
		out[section] = results
	}
	return out
}

// BuildQuery turns the structured extraction into one search query naming
// every extracted model so the answer engine returns datasheet text for all
// of them at once. Returns "" when nothing was extracted.
func BuildQuery(structured map[string]map[string]string) string {
	sections := make([]string, 0, len(structured))
	for s := range structured {
		sections = append(sections, s)
	}
	sort.Strings(sections)

	parts := make([]string, 0, len(sections))
	for _, section := range sections {
		fields := structured[section]
		names := make([]string, 0, len(fields))
		for f := range fields {
			names = append(names, f)
		}
		sort.Strings(names)
		for _, name := range names {
			value := strings.TrimSpace(fields[name])
			if value == "" {
				continue
			}
			parts = append(parts, section+" "+name+": "+value)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "Find the official manufacturer datasheet values confirming these solar equipment specifications: " +
		strings.Join(parts, "; ")
}

// BuildCorpus assembles the reference corpus: the answer summary extended
// with readable text from up to maxLinks cited pages. Fetch failures only
// shrink the corpus; they never fail the validation.
func BuildCorpus(ctx context.Context, answer websearch.Answer, fetcher *fetch.Client, maxLinks int) string {
	var b strings.Builder
	b.WriteString(answer.Summary)
	if fetcher == nil || maxLinks <= 0 {
		return b.String()
	}
	count := 0
	for _, link := range answer.Links {
		if count >= maxLinks {
			break
		}
		body, err := fetcher.Get(ctx, link)
		if err != nil {
			log.Debug().Err(err).Str("url", link).Msg("cited page skipped")
			continue
		}
		text := htmltext.Text(body)
		if text == "" {
			continue
		}
		b.WriteString("\n\n")
		b.WriteString(text)
		count++
	}
	return b.String()
}

// TopLinks returns at most n cited links.
func TopLinks(answer websearch.Answer, n int) []string {
	if n <= 0 || len(answer.Links) == 0 {
		return []string{}
	}
	if len(answer.Links) < n {
		n = len(answer.Links)
	}
	out := make([]string, n)
	copy(out, answer.Links[:n])
	return out
}
