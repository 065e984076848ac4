package banshee

import "time"

// Rule levels.
const (
	RuleLevelLow = iota
	RuleLevelMiddle
	RuleLevelHigh
)

type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Project struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	TeamID          int    `json:"teamID"`
	EnableSilent    bool   `json:"enableSilent"`
	SilentTimeStart int    `json:"silentTimeStart"`
	SilentTimeEnd   int    `json:"silentTimeEnd"`
}

// Rule describes when banshee alerts on the metrics matching Pattern.
// A zero ThresholdMax or ThresholdMin means the threshold is unset.
type Rule struct {
	ID            int       `json:"id,omitempty"`
	ProjectID     int       `json:"projectID,omitempty"`
	Pattern       string    `json:"pattern"`
	TrendUp       bool      `json:"trendUp"`
	TrendDown     bool      `json:"trendDown"`
	ThresholdMax  float64   `json:"thresholdMax"`
	ThresholdMin  float64   `json:"thresholdMin"`
	NumMetrics    int       `json:"numMetrics"`
	Comment       string    `json:"comment"`
	Level         int       `json:"level"`
	Disabled      bool      `json:"disabled"`
	DisabledFor   int       `json:"disabledFor"`
	DisabledAt    time.Time `json:"disabledAt"`
	TrackIdle     bool      `json:"trackIdle"`
	NeverFillZero bool      `json:"neverFillZero"`
}

type User struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	EnableEmail bool   `json:"enableEmail"`
	Phone       string `json:"phone"`
	EnablePhone bool   `json:"enablePhone"`
	Universal   bool   `json:"universal"`
	RuleLevel   int    `json:"ruleLevel"`
}

type WebHook struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	URL       string `json:"url"`
	Universal bool   `json:"universal"`
	RuleLevel int    `json:"ruleLevel"`
}

// Event is an anomaly alert event as stored by banshee.
type Event struct {
	ID                string  `json:"id"`
	RuleID            int     `json:"ruleID"`
	ProjectID         int     `json:"projectID"`
	Level             int     `json:"level"`
	Comment           string  `json:"comment"`
	Name              string  `json:"name"`
	Stamp             uint32  `json:"stamp"`
	Score             float64 `json:"score"`
	Average           float64 `json:"average"`
	Value             float64 `json:"value"`
	TranslatedComment string  `json:"translatedComment"`
}

// Index is the latest detection state of one metric.
type Index struct {
	Name         string  `json:"name"`
	Stamp        uint32  `json:"stamp"`
	Score        float64 `json:"score"`
	Average      float64 `json:"average"`
	MatchedRules []*Rule `json:"matchedRules"`
}

// Sample is one detected metric datapoint.
type Sample struct {
	Name    string  `json:"name,omitempty"`
	Stamp   uint32  `json:"stamp"`
	Value   float64 `json:"value"`
	Score   float64 `json:"score"`
	Average float64 `json:"average,omitempty"`
}

// RuleImportStatus is the per-row outcome of a bulk rule import. Status is
// nil for imported rows and carries the rejection otherwise.
type RuleImportStatus struct {
	Rule   string          `json:"Rule"`
	Status *RowImportError `json:"Status"`
}

// RowImportError is the error object banshee serializes for rejected rows.
// Validation errors arrive as {} and web errors as {"code":..,"msg":..}.
type RowImportError struct {
	Code int    `json:"code,omitempty"`
	Msg  string `json:"msg,omitempty"`
}

func (e *RowImportError) Error() string {
	if e.Msg == "" {
		return "rejected"
	}
	return e.Msg
}

type Interval struct {
	Interval uint32 `json:"interval"`
}

type Language struct {
	Language string `json:"language"`
}

type PrivateDocURL struct {
	PrivateDocURL string `json:"privateDocUrl"`
}

type GraphiteURL struct {
	GraphiteURL string `json:"graphiteUrl"`
}

// Config is the subset of the banshee server configuration the console reads.
type Config struct {
	Interval   uint32         `json:"interval"`
	Period     uint32         `json:"period"`
	Expiration uint32         `json:"expiration"`
	Detector   DetectorConfig `json:"detector"`
	Webapp     WebappConfig   `json:"webapp"`
}

type DetectorConfig struct {
	Port             int `json:"port"`
	IntervalHitLimit int `json:"intervalHitLimit"`
}

type WebappConfig struct {
	Port          int    `json:"port"`
	Language      string `json:"language"`
	PrivateDocURL string `json:"privateDocUrl"`
	GraphiteURL   string `json:"graphiteUrl"`
}
