package rules

import "strings"

const (
	graphitePrefix       = "stats."
	graphiteTimersPrefix = "stats.timers."
	graphiteGaugesPrefix = "stats.gauges."

	PrefixTimer   = "timer."
	PrefixCounter = "counter."
	PrefixGauge   = "gauge."
)

// TimerStats lists the statsd timer aggregates banshee detects on.
var TimerStats = []string{
	"count_ps",
	"mean",
	"mean_90",
	"mean_95",
	"upper",
	"upper_90",
	"upper_95",
	"count",
	"count_90",
	"count_95",
	"median",
	"std",
	"sum",
	"sum_90",
	"sum_95",
	"sum_squares",
	"lower",
}

// SupportedPrefixes returns every internal-form prefix a rule pattern may start with.
func SupportedPrefixes() []string {
	prefixes := make([]string, 0, len(TimerStats)+2)
	for _, stat := range TimerStats {
		prefixes = append(prefixes, PrefixTimer+stat+".")
	}
	return append(prefixes, PrefixCounter, PrefixGauge)
}

// IsGraphiteName reports whether name uses the dotted graphite convention.
func IsGraphiteName(name string) bool {
	return strings.HasPrefix(name, graphitePrefix)
}

// TranslateGraphiteName converts a graphite name to banshee's internal form.
// The second result is false when name has no graphite prefix.
//
//	stats.timers.api.get.mean_90 => timer.mean_90.api.get
//	stats.gauges.mem.free        => gauge.mem.free
//	stats.requests.total         => counter.requests.total
func TranslateGraphiteName(name string) (string, bool) {
	switch {
	case strings.HasPrefix(name, graphiteTimersPrefix):
		parts := strings.Split(name, ".")
		slug := strings.Join(parts[2:len(parts)-1], ".")
		return PrefixTimer + parts[len(parts)-1] + "." + slug, true
	case strings.HasPrefix(name, graphiteGaugesPrefix):
		return PrefixGauge + strings.TrimPrefix(name, graphiteGaugesPrefix), true
	case strings.HasPrefix(name, graphitePrefix):
		return PrefixCounter + strings.TrimPrefix(name, graphitePrefix), true
	}
	return "", false
}

// GetGraphiteName is the inverse of TranslateGraphiteName.
func GetGraphiteName(name string) (string, bool) {
	switch {
	case strings.HasPrefix(name, PrefixTimer):
		parts := strings.Split(name, ".")
		slug := strings.Join(parts[2:], ".")
		return graphiteTimersPrefix + slug + "." + parts[1], true
	case strings.HasPrefix(name, PrefixCounter):
		return graphitePrefix + strings.TrimPrefix(name, PrefixCounter), true
	case strings.HasPrefix(name, PrefixGauge):
		return graphiteGaugesPrefix + strings.TrimPrefix(name, PrefixGauge), true
	}
	return "", false
}

// DisplayName returns the internal form of a graphite name, or name itself
// when it cannot be translated.
func DisplayName(name string) string {
	if !IsGraphiteName(name) {
		return name
	}
	if translated, ok := TranslateGraphiteName(name); ok {
		return translated
	}
	return name
}
