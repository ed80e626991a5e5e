package models

import "errors"

// Calculation errors. They are returned wrapped with a message; match with errors.Is.
var (
	ErrEmptyDeck         = errors.New("empty deck")
	ErrInvalidOverride   = errors.New("invalid non-inkable override")
	ErrDeckSizeMismatch  = errors.New("deck size mismatch")
	ErrImportParse       = errors.New("deck import parse error")
	ErrInvalidParameters = errors.New("invalid parameters")
)
