package banshee

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Sort orders for metric indexes, by trending score.
const (
	SortUp   = "up"
	SortDown = "down"
)

// DefaultEventsPast is the event window banshee uses when none is given, in seconds.
const DefaultEventsPast = 24 * 60 * 60

// IndexQuery selects metric indexes. Project takes precedence over Pattern
// on the server; both empty selects every index.
type IndexQuery struct {
	Limit   int
	Sort    string
	Project int
	Pattern string
}

func (q IndexQuery) values() url.Values {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Project > 0 {
		v.Set("project", strconv.Itoa(q.Project))
	} else if q.Pattern != "" {
		v.Set("pattern", q.Pattern)
	}
	return v
}

// MetricIndexes lists the indexes of the metrics matching q that have at
// least one matched rule.
func (c *Client) MetricIndexes(ctx context.Context, q IndexQuery) ([]Index, error) {
	var idxs []Index
	r := request{method: http.MethodGet, endpoint: "/api/metric/indexes", query: q.values()}
	if err := c.do(ctx, r, &idxs); err != nil {
		return nil, err
	}
	return idxs, nil
}

// MetricData returns the samples of name between start and stop, both epoch seconds.
func (c *Client) MetricData(ctx context.Context, name string, start, stop uint32) ([]Sample, error) {
	if name == "" {
		return nil, fmt.Errorf("metric data: empty name")
	}
	q := url.Values{}
	q.Set("name", name)
	q.Set("start", strconv.FormatUint(uint64(start), 10))
	q.Set("stop", strconv.FormatUint(uint64(stop), 10))

	var samples []Sample
	r := request{method: http.MethodGet, endpoint: "/api/metric/data", query: q}
	if err := c.do(ctx, r, &samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// MetricRules returns the rules matching the metric name.
func (c *Client) MetricRules(ctx context.Context, name string) ([]Rule, error) {
	if name == "" {
		return nil, fmt.Errorf("metric rules: empty name")
	}
	var rules []Rule
	args := map[string]string{"name": name}
	if err := c.get(ctx, "/api/metric/rules/:name", args, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// EventQuery filters project events. Past is in seconds, 0 means one day.
type EventQuery struct {
	Past  int
	Level int
}

func (c *Client) ProjectEvents(ctx context.Context, projectID int, q EventQuery) ([]Event, error) {
	if err := checkID("project", projectID); err != nil {
		return nil, err
	}
	past := q.Past
	if past <= 0 {
		past = DefaultEventsPast
	}
	v := url.Values{}
	v.Set("past", strconv.Itoa(past))
	v.Set("level", strconv.Itoa(q.Level))

	var events []Event
	r := request{method: http.MethodGet, endpoint: "/api/project/:id/events", args: idArg(projectID), query: v}
	if err := c.do(ctx, r, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Config returns the banshee server configuration with secrets masked.
func (c *Client) Config(ctx context.Context) (*Config, error) {
	cfg := &Config{}
	if err := c.getCached(ctx, "/api/config", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Interval returns the detection interval in seconds.
func (c *Client) Interval(ctx context.Context) (uint32, error) {
	var v Interval
	if err := c.getCached(ctx, "/api/interval", &v); err != nil {
		return 0, err
	}
	return v.Interval, nil
}

func (c *Client) Language(ctx context.Context) (string, error) {
	var v Language
	if err := c.getCached(ctx, "/api/language", &v); err != nil {
		return "", err
	}
	return v.Language, nil
}

func (c *Client) PrivateDocURL(ctx context.Context) (string, error) {
	var v PrivateDocURL
	if err := c.getCached(ctx, "/api/privateDocUrl", &v); err != nil {
		return "", err
	}
	return v.PrivateDocURL, nil
}

// GraphiteURL returns the graphite link template, formatted with a graphite
// metric name.
func (c *Client) GraphiteURL(ctx context.Context) (string, error) {
	var v GraphiteURL
	if err := c.getCached(ctx, "/api/graphiteUrl", &v); err != nil {
		return "", err
	}
	return v.GraphiteURL, nil
}
