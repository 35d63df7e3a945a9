package models

// Signals is the derived statistical bundle scoring operates on. It is
// recomputed from raw historical values each update cycle, never stored as an
// independent source of truth.
type Signals struct {
	Values        []float64 `json:"values"`
	SampleSize    int       `json:"sample_size"`
	Mean          float64   `json:"mean"`
	StdDev        float64   `json:"std_dev"`
	HitRate       float64   `json:"hit_rate"`        // favorable side of the line, full sample
	RecentHitRate float64   `json:"recent_hit_rate"` // favorable side of the line, recent window
	RecentMean    float64   `json:"recent_mean"`
}

// IsEmpty reports whether the bundle carries no usable history
func (s *Signals) IsEmpty() bool {
	return s == nil || s.SampleSize == 0
}
