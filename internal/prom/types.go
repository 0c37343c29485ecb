package prom

import (
	"fmt"
	"strconv"
	"time"
)

// queryResponse represents a Prometheus query API response envelope
type queryResponse struct {
	Status string    `json:"status"`
	Data   queryData `json:"data"`
	Error  string    `json:"error,omitempty"`
}

// queryData contains the query result data
type queryData struct {
	ResultType string   `json:"resultType"`
	Result     []Series `json:"result"`
}

// Result is the decoded payload of one query: zero or more labeled series.
type Result struct {
	Series []Series
}

// Series is a single labeled series. Range queries populate Samples,
// instant queries populate Value; a series never carries both.
type Series struct {
	Metric  map[string]string `json:"metric"`
	Samples []SamplePair      `json:"values,omitempty"`
	Value   *SamplePair       `json:"value,omitempty"`
}

// SamplePair is [timestamp, value]. The value is kept as the raw JSON
// token (the query API encodes it as a string) and only parsed on
// demand, so callers can decide what an unparsable sample means.
type SamplePair [2]interface{}

// Timestamp returns the timestamp from the sample pair
func (sp SamplePair) Timestamp() time.Time {
	if ts, ok := sp[0].(float64); ok {
		return time.Unix(int64(ts), 0)
	}
	return time.Time{}
}

// Float parses the sample value as a number.
func (sp SamplePair) Float() (float64, error) {
	switch v := sp[1].(type) {
	case string:
		return strconv.ParseFloat(v, 64)
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("sample value is not numeric: %v", sp[1])
	}
}
