package feed

import (
	"math"
	"time"

	"github.com/nicolastakashi/banshee-console/internal/format"
	"github.com/nicolastakashi/banshee-console/internal/rules"
)

// Title classes for a metric in the browser.
const (
	ClassAnomalous = "anomalous"
	ClassNormal    = "normal"
)

// TrendText is the arrow prefix shown before a metric name.
func TrendText(score float64) string {
	switch {
	case score > 0:
		return "↑ "
	case score < 0:
		return "↓ "
	}
	return "- "
}

// TrendClass reports a metric as anomalous when its score magnitude is at
// least 1 and its index was updated within the last two intervals.
func TrendClass(score float64, stamp uint32, interval uint32, now time.Time) string {
	outdated := now.Unix()-2*int64(interval) > int64(stamp)
	if math.Abs(score) >= 1 && !outdated {
		return ClassAnomalous
	}
	return ClassNormal
}

// GraphiteLink formats the graphite URL template with the graphite form of
// name. Names without a graphite form are used as is.
func GraphiteLink(tpl, name string) string {
	graphiteName, ok := rules.GetGraphiteName(name)
	if !ok {
		graphiteName = name
	}
	return format.Format(tpl, graphiteName)
}
