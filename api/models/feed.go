package models

// Feed is the dense series of one metric over the requested window.
type Feed struct {
	Name   string    `json:"name"`
	Mode   string    `json:"mode"`
	Points []float64 `json:"points"`
	Error  string    `json:"error,omitempty"`
}

type FeedsResponse struct {
	Start int64  `json:"start"`
	Stop  int64  `json:"stop"`
	Step  int64  `json:"step"`
	Feeds []Feed `json:"feeds"`
}
