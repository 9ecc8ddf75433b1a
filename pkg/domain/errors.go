package domain

import "errors"

// ErrEntryNotFound is returned when an identifier has no live entry or no
// stored snapshot.
var ErrEntryNotFound = errors.New("entry not found")

// ErrEmptyIdentifier is returned when an operation needs a non-empty entry id.
var ErrEmptyIdentifier = errors.New("identifier cannot be empty")

// ErrInvalidTree is returned when a document cannot be represented as a Tree.
var ErrInvalidTree = errors.New("invalid tree")

// ErrInvalidIdentifier is returned for entry ids that are too long, not UTF-8
// or contain control characters.
var ErrInvalidIdentifier = errors.New("invalid identifier")
