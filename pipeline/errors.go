package pipeline

import "errors"

// Common pipeline errors.
var (
	// ErrUnreadableFile is returned when a candidate file cannot be read or
	// decoded. The file is skipped and the batch continues.
	ErrUnreadableFile = errors.New("unreadable file")

	// ErrWriteFailed is returned when an atomic rewrite fails after a retry.
	// The original file is left untouched.
	ErrWriteFailed = errors.New("write failed")

	// ErrVocabularyLoad is returned when the trusted vocabulary corpus is
	// missing, unreadable, or empty. The run aborts before touching any
	// candidate file.
	ErrVocabularyLoad = errors.New("vocabulary load failed")
)
