// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"strings"

	"github.com/pdiddy/dossier/pkg/types"
)

// Verdict is a relevance rule's decision about one link.
type Verdict int

const (
	// Abstain leaves the decision to later rules.
	Abstain Verdict = iota
	Accept
	Reject
)

// Target holds the lower-cased terms a link is matched against.
type Target struct {
	First       string
	Last        string
	Institution string
	Sites       []string
}

// NewTarget builds the match terms for subj. First and last are the first
// and last whitespace-separated tokens of the name.
func NewTarget(subj *types.Subject, sites []string) Target {
	t := Target{Institution: strings.ToLower(strings.TrimSpace(subj.Institution()))}
	if tokens := strings.Fields(strings.ToLower(subj.Name())); len(tokens) > 0 {
		t.First = tokens[0]
		t.Last = tokens[len(tokens)-1]
	}
	for _, s := range sites {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			t.Sites = append(t.Sites, s)
		}
	}
	return t
}

func (t Target) fullName(link string) bool {
	return t.First != "" && strings.Contains(link, t.First) && strings.Contains(link, t.Last)
}

// Rule is a named relevance check. Match receives the lower-cased link.
type Rule struct {
	Name  string
	Match func(link string, t Target) Verdict
}

// Rule names.
const (
	RuleTrustedAggregator = "trusted-aggregator"
	RuleSiteTerm          = "site-term"
	RuleFullName          = "full-name"
	RuleInstitution       = "institution"
)

// SiteTermRule accepts links containing any extra search term.
func SiteTermRule() Rule {
	return Rule{Name: RuleSiteTerm, Match: func(link string, t Target) Verdict {
		for _, s := range t.Sites {
			if strings.Contains(link, s) {
				return Accept
			}
		}
		return Abstain
	}}
}

// FullNameRule accepts links containing both the first and last name.
func FullNameRule() Rule {
	return Rule{Name: RuleFullName, Match: func(link string, t Target) Verdict {
		if t.fullName(link) {
			return Accept
		}
		return Abstain
	}}
}

// InstitutionRule accepts links containing the institution string.
func InstitutionRule() Rule {
	return Rule{Name: RuleInstitution, Match: func(link string, t Target) Verdict {
		if t.Institution != "" && strings.Contains(link, t.Institution) {
			return Accept
		}
		return Abstain
	}}
}

// TrustedAggregatorRule decides links on the given aggregator domains by
// name alone: accepted with first and last name, rejected otherwise, so a
// matching site term or institution cannot admit an unrelated profile.
func TrustedAggregatorRule(domains []string) Rule {
	var lower []string
	for _, d := range domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			lower = append(lower, d)
		}
	}
	return Rule{Name: RuleTrustedAggregator, Match: func(link string, t Target) Verdict {
		for _, d := range lower {
			if !strings.Contains(link, d) {
				continue
			}
			if t.fullName(link) {
				return Accept
			}
			return Reject
		}
		return Abstain
	}}
}

// DefaultRules returns the canonical rule order: site term, full name,
// institution. When aggregators are given, the trusted-aggregator rule runs
// first.
func DefaultRules(aggregators []string) []Rule {
	var rules []Rule
	if len(aggregators) > 0 {
		rules = append(rules, TrustedAggregatorRule(aggregators))
	}
	return append(rules, SiteTermRule(), FullNameRule(), InstitutionRule())
}

// Relevant applies rules in order and returns whether link is kept and the
// name of the deciding rule. A link no rule accepts is dropped.
func Relevant(link string, t Target, rules []Rule) (bool, string) {
	l := strings.ToLower(link)
	for _, r := range rules {
		switch r.Match(l, t) {
		case Accept:
			return true, r.Name
		case Reject:
			return false, r.Name
		}
	}
	return false, ""
}
