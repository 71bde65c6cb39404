// Package pipeline drives the scrub run: repair and empty-file removal,
// the global vocabulary audit, then pruning or stub generation against the
// frozen usage table.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/c360studio/semscrub/audit"
	"github.com/c360studio/semscrub/config"
	"github.com/c360studio/semscrub/prune"
	"github.com/c360studio/semscrub/turtle"
)

// WriteObserver is notified with the content hash of every candidate file
// the runner writes. The watcher registers itself here so the runner's own
// writes do not come back as change events.
type WriteObserver interface {
	SetHash(path, hash string)
}

// Runner executes scrub runs over the candidate corpus. Construct once and
// reuse; Run is safe to call repeatedly (watch mode does).
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	prefixes *audit.Prefixes
	repairer *turtle.Repairer
	observer WriteObserver
}

func NewRunner(cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	repairer, err := turtle.NewRepairer(cfg.Prefixes.Vocabulary, cfg.Prefixes.Resource)
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:      cfg,
		logger:   logger,
		prefixes: audit.NewPrefixes(cfg.Prefixes.Vocabulary, cfg.Prefixes.Bindings),
		repairer: repairer,
	}, nil
}

// SetObserver registers obs for write notifications.
func (r *Runner) SetObserver(obs WriteObserver) {
	r.observer = obs
}

// Run executes one full pass. The trusted vocabulary is scanned before any
// candidate file is touched, so a vocabulary failure aborts with zero
// progress. Per-file failures are recorded in the summary and never stop
// the batch; cancellation stops dispatching new files and skips the
// rewrite phase, because pruning against a partially counted table would
// remove terms that are not actually missing.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		RunID:   uuid.NewString(),
		Policy:  r.cfg.Scrub.Policy,
		Started: time.Now(),
	}

	defined, vocabFiles, err := r.loadVocabulary()
	if err != nil {
		return nil, err
	}
	summary.DefinedTerms = len(defined)
	r.logger.Debug("Vocabulary loaded",
		"dir", r.cfg.VocabDir,
		"files", vocabFiles,
		"terms", len(defined))

	files, err := ListFiles(r.cfg.DataDir, r.cfg.Scrub.Include, r.cfg.Scrub.Exclude)
	if err != nil {
		return nil, err
	}
	summary.FilesRead = len(files)

	survivors := r.repairPhase(ctx, files, summary)

	table := r.auditPhase(ctx, defined, survivors, summary)
	summary.MissingTerms = table.Missing()
	summary.UnusedTerms = len(table.Unused())

	if ctx.Err() == nil {
		r.applyPhase(ctx, table, survivors, summary)
	}

	if err := r.writeReport(summary.MissingTerms); err != nil {
		summary.recordError(r.cfg.Report, err)
	}

	summary.tallyErrors()
	summary.Finished = time.Now()
	return summary, nil
}

// Audit runs the vocabulary audit without mutating any candidate file: no
// repairs, no deletions, no rewrites. Usage is counted over the files as
// they are, and the missing-terms report is still written.
func (r *Runner) Audit(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		RunID:   uuid.NewString(),
		Policy:  r.cfg.Scrub.Policy,
		Started: time.Now(),
	}

	defined, vocabFiles, err := r.loadVocabulary()
	if err != nil {
		return nil, err
	}
	summary.DefinedTerms = len(defined)
	r.logger.Debug("Vocabulary loaded",
		"dir", r.cfg.VocabDir,
		"files", vocabFiles,
		"terms", len(defined))

	files, err := ListFiles(r.cfg.DataDir, r.cfg.Scrub.Include, r.cfg.Scrub.Exclude)
	if err != nil {
		return nil, err
	}
	summary.FilesRead = len(files)

	table := r.auditPhase(ctx, defined, files, summary)
	summary.MissingTerms = table.Missing()
	summary.UnusedTerms = len(table.Unused())

	if err := r.writeReport(summary.MissingTerms); err != nil {
		summary.recordError(r.cfg.Report, err)
	}

	summary.tallyErrors()
	summary.Finished = time.Now()
	return summary, nil
}

// loadVocabulary scans the trusted corpus once. The scan is flat, not
// recursive; a vocabulary is a small set of files in one directory.
func (r *Runner) loadVocabulary() (map[string]bool, int, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(r.cfg.VocabDir, "*.ttl"))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %v", ErrVocabularyLoad, r.cfg.VocabDir, err)
	}

	defined := make(map[string]bool)
	count := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		text, err := ReadCandidate(path)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %s: %v", ErrVocabularyLoad, path, err)
		}
		for name := range audit.ScanDefined(text, r.prefixes) {
			defined[name] = true
		}
		count++
	}
	if count == 0 {
		return nil, 0, fmt.Errorf("%w: no vocabulary files in %s", ErrVocabularyLoad, r.cfg.VocabDir)
	}
	return defined, count, nil
}

type repairResult struct {
	changed bool
	deleted bool
	err     error
}

// repairPhase repairs every candidate in parallel and returns the files
// that survive emptiness classification. The returned set is final before
// any usage counting begins.
func (r *Runner) repairPhase(ctx context.Context, files []string, summary *Summary) []string {
	results := make([]repairResult, len(files))
	g := new(errgroup.Group)
	g.SetLimit(r.workers(len(files)))
	for i, rel := range files {
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = repairResult{err: ctx.Err()}
				return nil
			}
			results[i] = r.repairFile(rel)
			return nil
		})
	}
	_ = g.Wait()

	survivors := make([]string, 0, len(files))
	for i, rel := range files {
		res := results[i]
		switch {
		case res.err != nil:
			summary.recordError(rel, res.err)
		case res.deleted:
			summary.FilesDeleted++
		default:
			if res.changed {
				summary.FilesRepaired++
			}
			survivors = append(survivors, rel)
		}
	}
	return survivors
}

func (r *Runner) repairFile(rel string) repairResult {
	path := r.dataPath(rel)
	text, err := ReadCandidate(path)
	if err != nil {
		return repairResult{err: err}
	}

	cleaned := turtle.StripFences(text)
	if !r.cfg.Scrub.SkipRepair {
		var repairs int
		cleaned, repairs = r.repairer.RepairText(cleaned)
		if repairs > 0 {
			r.logger.Debug("Repaired lines", "file", rel, "lines", repairs)
		}
	}

	segs := turtle.Segments(cleaned)
	if turtle.IsEmpty(segs) && !r.cfg.Scrub.KeepEmpty {
		if err := os.Remove(path); err != nil {
			return repairResult{err: fmt.Errorf("%w: %s: %v", ErrWriteFailed, path, err)}
		}
		r.logger.Debug("Deleted empty file", "file", rel)
		return repairResult{deleted: true}
	}

	canonical := turtle.Render(segs)
	if canonical == text {
		return repairResult{}
	}
	r.recordWrite(rel, canonical)
	if err := WriteFileAtomic(path, []byte(canonical)); err != nil {
		return repairResult{err: err}
	}
	return repairResult{changed: true}
}

type usageResult struct {
	usage *audit.Usage
	err   error
}

// auditPhase counts vocabulary usage across the surviving files and
// returns the frozen table. Workers fill position-indexed slots; the
// partials merge in sorted-file order after the barrier, so counts, file
// sets, and first-encounter order never depend on scheduling.
func (r *Runner) auditPhase(ctx context.Context, defined map[string]bool, files []string, summary *Summary) *audit.Table {
	results := make([]usageResult, len(files))
	g := new(errgroup.Group)
	g.SetLimit(r.workers(len(files)))
	for i, rel := range files {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			text, err := ReadCandidate(r.dataPath(rel))
			if err != nil {
				results[i] = usageResult{err: err}
				return nil
			}
			results[i] = usageResult{usage: audit.ScanUsage(rel, text, r.prefixes)}
			return nil
		})
	}
	_ = g.Wait()

	table := audit.NewTable(defined, r.cfg.Scrub.MinUsage)
	for i := range results {
		if results[i].err != nil {
			summary.recordError(files[i], results[i].err)
			continue
		}
		if results[i].usage != nil {
			table.MergeUsage(results[i].usage)
		}
	}
	table.Freeze()
	return table
}

func (r *Runner) applyPhase(ctx context.Context, table *audit.Table, files []string, summary *Summary) {
	if r.cfg.Scrub.Policy == config.PolicyStub {
		r.stubPhase(table, summary)
		return
	}
	r.prunePhase(ctx, table, files, summary)
}

type pruneResult struct {
	rewritten bool
	deleted   bool
	err       error
}

func (r *Runner) prunePhase(ctx context.Context, table *audit.Table, files []string, summary *Summary) {
	pruner := prune.NewPruner(r.prefixes, table)
	results := make([]pruneResult, len(files))
	g := new(errgroup.Group)
	g.SetLimit(r.workers(len(files)))
	for i, rel := range files {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = r.pruneFile(pruner, rel)
			return nil
		})
	}
	_ = g.Wait()

	for i, rel := range files {
		res := results[i]
		switch {
		case res.err != nil:
			summary.recordError(rel, res.err)
		case res.deleted:
			summary.FilesDeleted++
		case res.rewritten:
			summary.FilesRewritten++
		}
	}
}

func (r *Runner) pruneFile(pruner *prune.Pruner, rel string) pruneResult {
	path := r.dataPath(rel)
	text, err := ReadCandidate(path)
	if err != nil {
		return pruneResult{err: err}
	}
	out, changed := pruner.Rewrite(text)
	if !changed {
		return pruneResult{}
	}
	if turtle.IsEmpty(turtle.Segments(out)) && !r.cfg.Scrub.KeepEmpty {
		if err := os.Remove(path); err != nil {
			return pruneResult{err: fmt.Errorf("%w: %s: %v", ErrWriteFailed, path, err)}
		}
		r.logger.Debug("Deleted fully pruned file", "file", rel)
		return pruneResult{deleted: true}
	}
	r.recordWrite(rel, out)
	if err := WriteFileAtomic(path, []byte(out)); err != nil {
		return pruneResult{err: err}
	}
	return pruneResult{rewritten: true}
}

// stubPhase appends placeholder definitions for the missing terms to the
// stub vocabulary file. Candidate files are left alone under this policy.
func (r *Runner) stubPhase(table *audit.Table, summary *Summary) {
	records := table.MissingRecords()
	if len(records) == 0 {
		return
	}

	stubPath := r.stubPath()
	base := ""
	if data, err := os.ReadFile(stubPath); err == nil {
		base = string(data)
	} else if !os.IsNotExist(err) {
		summary.recordError(stubPath, fmt.Errorf("%w: %s: %v", ErrUnreadableFile, stubPath, err))
		return
	}

	builder := prune.NewStubBuilder(r.prefixes, r.cfg.Scrub.StubLangs)
	out := builder.Append(base, records)
	if err := WriteFileAtomic(stubPath, []byte(out)); err != nil {
		summary.recordError(stubPath, err)
		return
	}
	r.logger.Info("Stubbed missing terms", "file", stubPath, "terms", len(records))
}

func (r *Runner) stubPath() string {
	if filepath.IsAbs(r.cfg.Scrub.StubFile) {
		return r.cfg.Scrub.StubFile
	}
	return filepath.Join(r.cfg.VocabDir, r.cfg.Scrub.StubFile)
}

// writeReport lists every missing term, one per line, first-encountered
// order. An empty report is still written as the record of a clean run.
func (r *Runner) writeReport(missing []string) error {
	if r.cfg.Report == "" {
		return nil
	}
	if dir := filepath.Dir(r.cfg.Report); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrWriteFailed, r.cfg.Report, err)
		}
	}
	var b strings.Builder
	for _, name := range missing {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	return WriteFileAtomic(r.cfg.Report, []byte(b.String()))
}

func (r *Runner) dataPath(rel string) string {
	return filepath.Join(r.cfg.DataDir, filepath.FromSlash(rel))
}

func (r *Runner) recordWrite(rel, content string) {
	if r.observer == nil {
		return
	}
	r.observer.SetHash(rel, ContentHash([]byte(content)))
}

func (r *Runner) workers(n int) int {
	w := r.cfg.Scrub.EffectiveWorkers()
	if n > 0 && w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}
