package corpus

import "errors"

var (
	// ErrCorpusRoot is returned when the corpus root cannot be accessed or is not a directory.
	ErrCorpusRoot = errors.New("corpus root is not accessible")

	// ErrUnreadableDocument is returned when a document cannot be read or decoded.
	ErrUnreadableDocument = errors.New("unreadable document")

	// ErrInvalidErrorPolicy is returned for an unknown ErrorPolicy value.
	ErrInvalidErrorPolicy = errors.New("invalid error policy")
)
