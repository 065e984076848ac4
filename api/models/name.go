package models

// MetricName is a metric name in both its forms. Graphite and Internal are
// empty when the name has no such form.
type MetricName struct {
	Name       string `json:"name"`
	IsGraphite bool   `json:"isGraphite"`
	Internal   string `json:"internal,omitempty"`
	Graphite   string `json:"graphite,omitempty"`
	Display    string `json:"display"`
	Link       string `json:"link,omitempty"`
}
