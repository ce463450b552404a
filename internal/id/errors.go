package id

import "errors"

var (
	ErrMissingPrefix           = errors.New("missing prefix")
	ErrInvalidPrefix           = errors.New("invalid prefix")
	ErrMissingVariantAndTarget = errors.New("missing variant and target id")
	ErrMissingVariant          = errors.New("missing variant")
	ErrInvalidVariant          = errors.New("invalid variant")
	ErrMissingTargetID         = errors.New("missing target id")
	ErrMissingGlobalID         = errors.New("missing global id")
	ErrInvalidGlobalID         = errors.New("invalid global id")
	ErrUnexpectedVariant       = errors.New("unexpected variant")
)
