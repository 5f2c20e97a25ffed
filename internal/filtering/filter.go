// Package filtering decides which Cloudflare Pages projects the monitor tracks.
//
// Patterns are gobwas/glob expressions matched against project names, for example
// "docs-*" or "{blog,shop}". Exclusion takes precedence over inclusion, and an empty
// include list admits every project that is not excluded.
package filtering

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// ProjectFilter matches project names against compiled include and exclude patterns.
// A nil filter admits every project.
type ProjectFilter struct {
	include []pattern
	exclude []pattern
}

type pattern struct {
	raw   string
	match glob.Glob
}

// NewProjectFilter compiles the patterns. Empty or malformed patterns are rejected with
// their list and index.
func NewProjectFilter(include, exclude []string) (*ProjectFilter, error) {
	in, err := compile("include", include)
	if err != nil {
		return nil, err
	}
	ex, err := compile("exclude", exclude)
	if err != nil {
		return nil, err
	}
	return &ProjectFilter{include: in, exclude: ex}, nil
}

func compile(list string, raws []string) ([]pattern, error) {
	patterns := make([]pattern, 0, len(raws))
	for i, raw := range raws {
		if strings.TrimSpace(raw) == "" {
			return nil, fmt.Errorf("%s[%d]: pattern is empty", list, i)
		}
		g, err := glob.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: invalid pattern %q: %w", list, i, raw, err)
		}
		patterns = append(patterns, pattern{raw: raw, match: g})
	}
	return patterns, nil
}

// Allows reports whether the project called name is tracked, with the reason
func (f *ProjectFilter) Allows(name string) (bool, string) {
	if f.IsEmpty() {
		return true, "no project patterns"
	}

	for _, p := range f.exclude {
		if p.match.Match(name) {
			return false, fmt.Sprintf("excluded by %q", p.raw)
		}
	}
	if len(f.include) == 0 {
		return true, "not excluded"
	}
	for _, p := range f.include {
		if p.match.Match(name) {
			return true, fmt.Sprintf("included by %q", p.raw)
		}
	}
	return false, "matches no include pattern"
}

// IsEmpty reports whether the filter has no patterns
func (f *ProjectFilter) IsEmpty() bool {
	return f == nil || len(f.include)+len(f.exclude) == 0
}
