package engine

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/echoreply/echoreply/internal/config"
)

// rule is a compiled reply rule. Exactly one of re or substr is set.
type rule struct {
	reply         string
	priority      int
	re            *regexp.Regexp
	substr        string
	caseSensitive bool
}

// compileRules compiles and orders the configured rules by priority,
// descending, keeping configuration order for ties. Rules with invalid
// regular expressions are dropped with a warning; validation reports
// them earlier, so this only guards direct programmatic updates.
func compileRules(in []config.ReplyRule, logger *slog.Logger) []rule {
	out := make([]rule, 0, len(in))
	for _, r := range in {
		cr := rule{
			reply:         r.Reply,
			priority:      r.Priority,
			caseSensitive: r.CaseSensitive,
		}
		if r.Regex {
			re, err := regexp.Compile(r.Match)
			if err != nil {
				logger.Warn("dropping reply rule with invalid pattern", "match", r.Match, "error", err)
				continue
			}
			cr.re = re
		} else {
			cr.substr = r.Match
		}
		out = append(out, cr)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].priority > out[j].priority
	})
	return out
}

// matches reports whether the rule applies to the raw message text.
// Regex rules match the text as written; substring rules honor the
// case-sensitivity flag.
func (r rule) matches(text string) bool {
	if r.re != nil {
		return r.re.MatchString(text)
	}
	if r.caseSensitive {
		return strings.Contains(text, r.substr)
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(r.substr))
}
