package model

// EndpointStat holds request statistics for one endpoint on one day.
type EndpointStat struct {
	Day           string  `json:"day"` // YYYY-MM-DD
	Endpoint      string  `json:"endpoint"`
	Requests      int64   `json:"requests"`
	Successes     int64   `json:"successes"`
	Errors        int64   `json:"errors"`
	TotalDuration float64 `json:"total_duration_ms"`
}

// AvgDuration returns the mean request duration in milliseconds.
func (s EndpointStat) AvgDuration() float64 {
	if s.Requests == 0 {
		return 0
	}
	return s.TotalDuration / float64(s.Requests)
}
