package normalizer

import (
	"fmt"

	"MarketDash/internal/model"
)

// Ownership validates an ownership breakdown.
func Ownership(o model.OwnershipMix) (model.OwnershipMix, error) {
	if err := o.Validate(); err != nil {
		return model.OwnershipMix{}, fmt.Errorf("%w: %v", ErrMalformedMix, err)
	}
	return o, nil
}

// Recommendations validates analyst rating counts.
func Recommendations(r model.RecommendationMix) (model.RecommendationMix, error) {
	if err := r.Validate(); err != nil {
		return model.RecommendationMix{}, fmt.Errorf("%w: %v", ErrMalformedMix, err)
	}
	return r, nil
}

// Normalize dispatches a raw payload to the normalizer for kind. Series and
// volume payloads both return a SeriesResult, since volume is projected
// from the parsed series rather than parsed on its own.
func Normalize(kind model.Kind, symbol string, raw any) (any, error) {
	switch kind {
	case model.KindQuote:
		m, ok := raw.(map[string]string)
		if !ok && raw != nil {
			return nil, fmt.Errorf("%w: %s wants map[string]string, got %T", ErrUnexpectedPayload, kind, raw)
		}
		return Quote(symbol, m)
	case model.KindSeries, model.KindVolume:
		m, ok := raw.(map[string]map[string]string)
		if !ok && raw != nil {
			return nil, fmt.Errorf("%w: %s wants map[string]map[string]string, got %T", ErrUnexpectedPayload, kind, raw)
		}
		return Daily(m)
	case model.KindOwnership:
		o, ok := raw.(model.OwnershipMix)
		if !ok {
			return nil, fmt.Errorf("%w: %s wants OwnershipMix, got %T", ErrUnexpectedPayload, kind, raw)
		}
		return Ownership(o)
	case model.KindRecommendations:
		r, ok := raw.(model.RecommendationMix)
		if !ok {
			return nil, fmt.Errorf("%w: %s wants RecommendationMix, got %T", ErrUnexpectedPayload, kind, raw)
		}
		return Recommendations(r)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
}
