package model

import "time"

// Snapshot is the consolidated current state of all tracked kinds for one
// symbol. Values handed out by the store are copies.
type Snapshot struct {
	Symbol          string            `json:"symbol"`
	Quote           Quote             `json:"quote"`
	Series          TimeSeries        `json:"series"`
	Volume          VolumeSeries      `json:"volume"`
	Ownership       OwnershipMix      `json:"ownership"`
	Recommendations RecommendationMix `json:"recommendations"`
	Ready           bool              `json:"ready"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Clone returns a deep copy of the slice fields.
func (s Snapshot) Clone() Snapshot {
	s.Series = s.Series.Clone()
	s.Volume = s.Volume.Clone()
	return s
}

// Value returns the field for kind k.
func (s Snapshot) Value(k Kind) any {
	switch k {
	case KindQuote:
		return s.Quote
	case KindSeries:
		return s.Series.Clone()
	case KindVolume:
		return s.Volume.Clone()
	case KindOwnership:
		return s.Ownership
	case KindRecommendations:
		return s.Recommendations
	}
	return nil
}
