// Package websearch talks to a web-search answer engine: a service with a
// chat-completions shaped API that answers a question with a sourced
// summary. The pipeline treats it as an opaque reference oracle.
package websearch

import (
	"context"
	"regexp"
)

// Answer is one engine response: the free-text summary and the URLs it
// cited, in order of appearance.
type Answer struct {
	Summary string   `json:"summary"`
	Links   []string `json:"links"`
}

// Engine is the minimal interface the validators consume.
type Engine interface {
	Ask(ctx context.Context, query string) (Answer, error)
	Name() string
}

var urlRe = regexp.MustCompile(`https?://[^\s()<>"']+[^\s()<>"'.,;:!?]`)

// ExtractURLs pulls every absolute http(s) URL out of free text,
// deduplicated in first-seen order.
func ExtractURLs(text string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, u := range urlRe.FindAllString(text, -1) {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
