// Package filter narrows the archive index down to download targets.
package filter

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/CyberFazaN/wayback-fetcher/internal/cdx"
)

// Criteria is the set of record filters. Empty criteria match
// everything; a supplied criterion with no values is no constraint, not
// "match nothing".
type Criteria struct {
	// Extensions are lowercase, dot-prefixed URL path extensions.
	Extensions []string

	// Mimetypes are lowercase mimetypes, compared exactly.
	Mimetypes []string

	// Pattern is searched (unanchored) against the URL path only.
	Pattern *regexp.Regexp
}

// Empty reports whether no criterion is supplied.
func (c Criteria) Empty() bool {
	return len(c.Extensions) == 0 && len(c.Mimetypes) == 0 && c.Pattern == nil
}

// Apply selects download targets from the index. A record is a target
// when it matches ANY supplied criterion; this is a union across
// extension, mimetype and regex filters, not an intersection. Callers
// that need intersection semantics should supply a single criterion.
//
// The second return value is the subset of targets known to have more
// than one distinct stored content version. It is informational only;
// those records stay in the target list.
func Apply(records []cdx.Record, c Criteria) ([]cdx.Record, []cdx.Record) {
	targets := records
	if !c.Empty() {
		exts := toSet(c.Extensions)
		mtypes := toSet(c.Mimetypes)

		targets = make([]cdx.Record, 0, len(records))
		for _, r := range records {
			if matches(r, exts, mtypes, c.Pattern) {
				targets = append(targets, r)
			}
		}
	}

	var multi []cdx.Record
	for _, r := range targets {
		if r.MultiVariant() {
			multi = append(multi, r)
		}
	}
	return targets, multi
}

func matches(r cdx.Record, exts, mtypes map[string]struct{}, pattern *regexp.Regexp) bool {
	urlPath := pathOf(r.Original)
	ext := strings.ToLower(path.Ext(urlPath))
	mt := strings.ToLower(r.Mimetype)

	if len(exts) > 0 && ext != "" {
		if _, ok := exts[ext]; ok {
			return true
		}
	}
	if len(mtypes) > 0 && mt != "" {
		if _, ok := mtypes[mt]; ok {
			return true
		}
	}
	if pattern != nil && pattern.MatchString(urlPath) {
		return true
	}
	return false
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
