package rules

import (
	"fmt"
	"strings"

	"github.com/autobrr/tcm/pkg/regex"
)

const regexPrefix = "regex:"

// Rule is a single file match rule, either a case-insensitive filename
// suffix (".exe", "rarbg.txt") or a "regex:" prefixed pattern matched
// against the file path.
type Rule struct {
	text   string
	suffix string
	re     *regex.Pattern
}

func (r *Rule) Text() string {
	return r.text
}

func (r *Rule) Match(path string) bool {
	if r.re != nil {
		match, err := regex.Check(path, r.re)
		if err != nil {
			return false
		}
		return match
	}

	return strings.HasSuffix(strings.ToLower(path), r.suffix)
}

// Set is an ordered list of rules.
type Set struct {
	rules []Rule
}

func Parse(values []string) (*Set, error) {
	s := new(Set)

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}

		if p, ok := strings.CutPrefix(v, regexPrefix); ok {
			re, err := regex.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("compile rule %q: %w", v, err)
			}

			s.rules = append(s.rules, Rule{text: v, re: re})
			continue
		}

		s.rules = append(s.rules, Rule{text: v, suffix: strings.ToLower(v)})
	}

	return s, nil
}

// Match returns the text of the first rule matching path.
func (s *Set) Match(path string) (string, bool) {
	for i := range s.rules {
		if s.rules[i].Match(path) {
			return s.rules[i].text, true
		}
	}

	return "", false
}

func (s *Set) Len() int {
	return len(s.rules)
}
