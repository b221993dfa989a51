package normalizer

import "errors"

var (
	ErrEmptyPayload      = errors.New("empty payload")
	ErrMalformedQuote    = errors.New("malformed quote")
	ErrMalformedBar      = errors.New("malformed bar")
	ErrMalformedMix      = errors.New("malformed mix")
	ErrUnknownKind       = errors.New("unknown kind")
	ErrUnexpectedPayload = errors.New("unexpected payload type")
)
