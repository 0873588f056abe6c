package filter

import (
	"path"
	"regexp"
	"strings"

	"strmsync/internal/config"
	"strmsync/internal/services"
)

// Rules holds the compiled filter set for one source.
type Rules struct {
	allowedExts map[string]struct{}
	ignoreExts  map[string]struct{}
	keywords    []string
	includes    []*regexp.Regexp
	excludes    []*regexp.Regexp
}

// Compile builds Rules from a source definition. Regex patterns were already
// checked during config validation; a failure here still reports a
// configuration error rather than panicking.
func Compile(src *config.Source) (*Rules, error) {
	rules := &Rules{
		allowedExts: map[string]struct{}{},
		ignoreExts:  map[string]struct{}{},
		keywords:    append([]string{}, src.IgnoreKeywords...),
	}
	for _, ext := range src.VideoExtensions {
		rules.allowedExts[ext] = struct{}{}
	}
	for _, ext := range src.AudioExtensions {
		rules.allowedExts[ext] = struct{}{}
	}
	for _, ext := range src.IgnoreExtensions {
		rules.ignoreExts[ext] = struct{}{}
	}

	for _, pattern := range src.IncludeRegex {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "filter", "compile", pattern, err)
		}
		rules.includes = append(rules.includes, re)
	}
	for _, pattern := range src.ExcludeRegex {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "filter", "compile", pattern, err)
		}
		rules.excludes = append(rules.excludes, re)
	}
	return rules, nil
}

// AcceptFile reports whether a file at the given logical path takes part in
// the sync. Order: extension allow/deny, ignore keywords, include regex (when
// any are present the path must match at least one), exclude regex (the path
// must match none).
func (r *Rules) AcceptFile(logicalPath string) bool {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(logicalPath), "."))
	if _, denied := r.ignoreExts[ext]; denied {
		return false
	}
	if _, allowed := r.allowedExts[ext]; !allowed {
		return false
	}

	base := path.Base(logicalPath)
	for _, keyword := range r.keywords {
		if keyword != "" && strings.Contains(strings.ToLower(base), strings.ToLower(keyword)) {
			return false
		}
	}

	if len(r.includes) > 0 {
		matched := false
		for _, re := range r.includes {
			if re.MatchString(logicalPath) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, re := range r.excludes {
		if re.MatchString(logicalPath) {
			return false
		}
	}
	return true
}

// PruneDir reports whether the walker should skip descending into a
// directory. Only the exclusion rules apply to directories; include rules and
// the extension allow list describe files, so they never prune a subtree.
func (r *Rules) PruneDir(logicalPath string) bool {
	base := path.Base(logicalPath)
	for _, keyword := range r.keywords {
		if keyword != "" && strings.Contains(strings.ToLower(base), strings.ToLower(keyword)) {
			return true
		}
	}
	for _, re := range r.excludes {
		if re.MatchString(logicalPath) {
			return true
		}
	}
	return false
}
