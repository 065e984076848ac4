package view

import (
	"time"

	"github.com/nicolastakashi/banshee-console/internal/banshee"
	"github.com/nicolastakashi/banshee-console/internal/rules"
)

// RuleView is a rule with everything the rule list shows next to it.
type RuleView struct {
	banshee.Rule
	DisplayPattern       string      `json:"displayPattern"`
	Expression           string      `json:"expression"`
	TranslatedExpression string      `json:"translatedExpression"`
	Check                rules.Check `json:"check"`
	DisabledNow          bool        `json:"disabledNow"`
}

func NewRuleView(r banshee.Rule, phrases rules.Phrases, now time.Time) RuleView {
	return RuleView{
		Rule:                 r,
		DisplayPattern:       rules.DisplayName(r.Pattern),
		Expression:           rules.BuildExpression(&r),
		TranslatedExpression: rules.TranslateExpression(&r, phrases),
		Check:                rules.ClassifyRule(&r),
		DisabledNow:          rules.IsDisabledNow(&r, now),
	}
}

func AnnotateRules(rs []banshee.Rule, phrases rules.Phrases, now time.Time) []RuleView {
	views := make([]RuleView, 0, len(rs))
	for _, r := range rs {
		views = append(views, NewRuleView(r, phrases, now))
	}
	return views
}
