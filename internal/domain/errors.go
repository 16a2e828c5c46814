package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidMonth          = errors.New("invalid month")
	ErrClassification        = errors.New("sentiment classification failed")
	ErrClassifierUnavailable = errors.New("sentiment classifier unavailable")
	ErrClassifierMismatch    = errors.New("classifier returned a mismatched batch")
)
