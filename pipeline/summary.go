package pipeline

import (
	"log/slog"
	"time"
)

// FileError records a non-fatal per-file failure.
type FileError struct {
	Path string
	Err  error
}

// Summary is the per-run count summary. It is always produced, even when
// some files error.
type Summary struct {
	RunID    string
	Policy   string
	Started  time.Time
	Finished time.Time

	FilesRead      int
	FilesRepaired  int
	FilesDeleted   int
	FilesRewritten int
	FilesErrored   int

	DefinedTerms int
	MissingTerms []string
	UnusedTerms  int

	Errors []FileError
}

// recordError appends a per-file failure. FilesErrored counts distinct
// paths, so a file failing in more than one phase is counted once.
func (s *Summary) recordError(path string, err error) {
	s.Errors = append(s.Errors, FileError{Path: path, Err: err})
}

func (s *Summary) tallyErrors() {
	paths := make(map[string]bool, len(s.Errors))
	for _, fe := range s.Errors {
		paths[fe.Path] = true
	}
	s.FilesErrored = len(paths)
}

// Duration returns the wall-clock time of the run.
func (s *Summary) Duration() time.Duration {
	return s.Finished.Sub(s.Started)
}

// Log emits the run summary and any per-file errors.
func (s *Summary) Log(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Scrub complete",
		"run_id", s.RunID,
		"policy", s.Policy,
		"duration", s.Duration().Round(time.Millisecond),
		"files_read", s.FilesRead,
		"files_repaired", s.FilesRepaired,
		"files_deleted", s.FilesDeleted,
		"files_rewritten", s.FilesRewritten,
		"files_errored", s.FilesErrored,
		"defined_terms", s.DefinedTerms,
		"missing_terms", len(s.MissingTerms),
		"unused_terms", s.UnusedTerms)
	for _, fe := range s.Errors {
		logger.Warn("File error", "file", fe.Path, "error", fe.Err)
	}
}
