package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/nicolastakashi/banshee-console/internal/banshee"
)

// Check is the outcome of ClassifyRule.
type Check int

const (
	CheckOK Check = iota
	// CheckGraphiteNameUnexpanded means the pattern is a graphite name that
	// currently matches no metric.
	CheckGraphiteNameUnexpanded
	// CheckUnsupportedMetric means the pattern has no supported statistic prefix.
	CheckUnsupportedMetric
)

func (c Check) String() string {
	switch c {
	case CheckOK:
		return "ok"
	case CheckGraphiteNameUnexpanded:
		return "graphite_name_unexpanded"
	case CheckUnsupportedMetric:
		return "unsupported_metric"
	}
	return fmt.Sprintf("check(%d)", int(c))
}

func (c Check) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

var supportedPrefixes = SupportedPrefixes()

// ClassifyRule reports whether rule can match anything useful. The graphite
// check runs first so an unexpanded graphite pattern is never reported as
// unsupported.
func ClassifyRule(rule *banshee.Rule) Check {
	if IsGraphiteName(rule.Pattern) && rule.NumMetrics == 0 {
		return CheckGraphiteNameUnexpanded
	}
	for _, prefix := range supportedPrefixes {
		if strings.HasPrefix(rule.Pattern, prefix) {
			return CheckOK
		}
	}
	return CheckUnsupportedMetric
}

// IsDisabledNow reports whether rule is disabled forever or its temporary
// disable window has not elapsed at now.
func IsDisabledNow(rule *banshee.Rule, now time.Time) bool {
	if !rule.Disabled {
		return false
	}
	if rule.DisabledFor <= 0 {
		return true
	}
	return now.Before(rule.DisabledAt.Add(time.Duration(rule.DisabledFor) * time.Minute))
}

// TranslateComment replaces $1..$n in the rule comment with the metric name
// segments matched by each "*" of the pattern.
//
//	pattern "timer.count_ps.*", metric "timer.count_ps.foo", comment "$1 timing" => "foo timing"
func TranslateComment(rule *banshee.Rule, metric string) string {
	patternParts := strings.Split(rule.Pattern, ".")
	metricParts := strings.Split(metric, ".")
	if len(patternParts) != len(metricParts) {
		return rule.Comment
	}
	n := 0
	s := rule.Comment
	for i, part := range patternParts {
		if part == "*" {
			n++
			s = strings.Replace(s, fmt.Sprintf("$%d", n), metricParts[i], 1)
		}
	}
	return s
}
