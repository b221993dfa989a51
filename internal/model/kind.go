package model

import "fmt"

// Kind identifies one independently fetched piece of dashboard state.
type Kind int

const (
	KindQuote Kind = iota
	KindSeries
	KindVolume
	KindOwnership
	KindRecommendations
)

// NumKinds is the number of kinds a Snapshot tracks.
const NumKinds = 5

// Kinds lists every kind in declaration order.
var Kinds = [NumKinds]Kind{KindQuote, KindSeries, KindVolume, KindOwnership, KindRecommendations}

var kindNames = [NumKinds]string{"quote", "series", "volume", "ownership", "recommendations"}

func (k Kind) Valid() bool { return k >= 0 && int(k) < NumKinds }

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown kind %q", name)
}

// ZeroValue returns the empty/zero value used as a first-fetch fallback.
func ZeroValue(k Kind, symbol string) any {
	switch k {
	case KindQuote:
		return ZeroQuote(symbol)
	case KindSeries:
		return TimeSeries{}
	case KindVolume:
		return VolumeSeries{}
	case KindOwnership:
		return OwnershipMix{}
	case KindRecommendations:
		return RecommendationMix{}
	}
	return nil
}
