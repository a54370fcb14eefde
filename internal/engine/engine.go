package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Request describes a single compression job.
type Request struct {
	SourcePath    string
	OutputPath    string // empty means overwrite the source
	Target        TargetSpec
	MaxIterations int
	Preset        string // ffmpeg preset, video only
}

// Destination returns the path the final artifact is committed to.
func (r Request) Destination() string {
	if r.OutputPath != "" {
		return r.OutputPath
	}
	return r.SourcePath
}

// Result describes the outcome of a compression job.
type Result struct {
	FinalPath    string
	FinalSize    int64
	OriginalSize int64
	TargetSize   int64
	Iterations   int
	Reduction    float64 // achieved reduction, percent of original
	MetCap       bool    // iteration cap exhausted, best-effort commit
	AlreadyMet   bool    // source already satisfied the target, no-op
}

// Params is one concrete parameter set for a codec invocation.
type Params struct {
	Quality       int
	Width, Height int // 0 means keep source dimensions
	BitrateKbps   int
	Preset        string
}

// Invoker produces one candidate artifact at outPath using the given
// parameters. A returned error aborts the whole job.
type Invoker interface {
	Encode(ctx context.Context, params Params, outPath string) error
}

// Scheduler proposes the parameter set for each iteration.
type Scheduler interface {
	// Initial returns the parameters for the first iteration.
	Initial() Params
	// Advance consumes the outcome of a failed iteration and returns the
	// parameters to try next.
	Advance(iteration int, candidateSize, targetSize, originalSize int64) Params
}

// Progress is emitted once per iteration after the candidate is measured.
type Progress struct {
	Iteration     int // 1-based, for display
	Quality       int
	BitrateKbps   int
	CandidateSize int64
	TargetSize    int64
}

// ProgressFunc observes per-iteration progress. It must not retain the
// Progress value's candidate on disk; the file may be deleted immediately
// after the callback returns.
type ProgressFunc func(Progress)

// Engine runs compression jobs. It is safe for sequential reuse; each job
// owns its own temporary candidate and no state persists between jobs.
type Engine struct {
	log        *logrus.Logger
	ffmpeg     capability
	ffprobe    capability
	exiftool   capability
	onProgress ProgressFunc
}

// Options configures engine construction.
type Options struct {
	// Binary names (or paths) for the external tools. Empty values fall
	// back to the conventional names.
	FFmpegBin   string
	FFprobeBin  string
	ExiftoolBin string

	// OnProgress, when set, is called once per iteration.
	OnProgress ProgressFunc
}

// New resolves external tool capabilities once and returns an engine.
// Missing tools are not an error here; operations that need them fail
// with a *CapabilityError when invoked.
func New(log *logrus.Logger, opts Options) *Engine {
	if log == nil {
		log = logrus.New()
	}
	return &Engine{
		log:        log,
		ffmpeg:     lookupCapability(opts.FFmpegBin, "ffmpeg"),
		ffprobe:    lookupCapability(opts.FFprobeBin, "ffprobe"),
		exiftool:   lookupCapability(opts.ExiftoolBin, "exiftool"),
		onProgress: opts.OnProgress,
	}
}

// run is the shared convergence loop. The scheduler and invoker carry all
// media-kind specifics.
func (e *Engine) run(ctx context.Context, req Request, sched Scheduler, inv Invoker) (*Result, error) {
	if req.MaxIterations <= 0 {
		return nil, fmt.Errorf("max iterations must be positive, got %d", req.MaxIterations)
	}

	originalSize, err := fileSize(req.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}

	dest := req.Destination()
	targetSize := req.Target.Resolve(originalSize)
	if res, ok := e.noop(req, originalSize); ok {
		return res, nil
	}

	params := sched.Initial()

	// Candidate lifetime: exactly one exists at a time, and any still-live
	// candidate is removed on every exit path except commit.
	candidate := ""
	defer func() {
		if candidate != "" {
			_ = os.Remove(candidate)
		}
	}()

	for iteration := 0; iteration < req.MaxIterations; iteration++ {
		candidate, err = newCandidatePath(dest)
		if err != nil {
			return nil, fmt.Errorf("%w: create candidate: %v", ErrEncodeFailed, err)
		}

		if err := inv.Encode(ctx, params, candidate); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncodeFailed, err)
		}

		size, err := fileSize(candidate)
		if err != nil {
			return nil, fmt.Errorf("%w: measure candidate: %v", ErrEncodeFailed, err)
		}

		e.log.WithFields(logrus.Fields{
			"file":      req.SourcePath,
			"iteration": iteration + 1,
			"quality":   params.Quality,
			"bitrate":   params.BitrateKbps,
			"size":      size,
			"target":    targetSize,
		}).Debug("candidate produced")
		if e.onProgress != nil {
			e.onProgress(Progress{
				Iteration:     iteration + 1,
				Quality:       params.Quality,
				BitrateKbps:   params.BitrateKbps,
				CandidateSize: size,
				TargetSize:    targetSize,
			})
		}

		if size <= targetSize {
			if err := commit(candidate, dest); err != nil {
				return nil, err
			}
			candidate = ""
			return &Result{
				FinalPath:    dest,
				FinalSize:    size,
				OriginalSize: originalSize,
				TargetSize:   targetSize,
				Iterations:   iteration + 1,
				Reduction:    reduction(originalSize, size),
			}, nil
		}

		// The last candidate is kept and committed best-effort. The cap
		// check has to come before the delete or the commit below would
		// race a path that no longer exists.
		if iteration+1 == req.MaxIterations {
			if err := commit(candidate, dest); err != nil {
				return nil, err
			}
			candidate = ""
			e.log.WithFields(logrus.Fields{
				"file":   req.SourcePath,
				"size":   size,
				"target": targetSize,
			}).Warn("iteration cap exhausted before reaching target size")
			return &Result{
				FinalPath:    dest,
				FinalSize:    size,
				OriginalSize: originalSize,
				TargetSize:   targetSize,
				Iterations:   iteration + 1,
				Reduction:    reduction(originalSize, size),
				MetCap:       true,
			}, nil
		}

		if err := os.Remove(candidate); err != nil {
			return nil, fmt.Errorf("discard candidate: %w", err)
		}
		candidate = ""
		params = sched.Advance(iteration, size, targetSize, originalSize)
	}

	// Unreachable: the loop always returns on the final iteration.
	return nil, fmt.Errorf("%w: no candidate produced", ErrEncodeFailed)
}

// noop reports whether the source already satisfies the target, and if so
// returns the no-op result: the original is left untouched.
func (e *Engine) noop(req Request, originalSize int64) (*Result, bool) {
	targetSize := req.Target.Resolve(originalSize)
	if targetSize < originalSize {
		return nil, false
	}
	e.log.WithFields(logrus.Fields{
		"file":   req.SourcePath,
		"size":   originalSize,
		"target": targetSize,
	}).Info("file already satisfies target size")
	return &Result{
		FinalPath:    req.SourcePath,
		FinalSize:    originalSize,
		OriginalSize: originalSize,
		TargetSize:   targetSize,
		AlreadyMet:   true,
	}, true
}

// fileSize returns the byte length of the named file. Unlike a bare stat
// helper, failures propagate: a read error must never be mistaken for a
// zero-byte result.
func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", path)
	}
	return info.Size(), nil
}

// newCandidatePath creates an empty temporary file next to dest so the
// final rename never crosses a filesystem boundary. The candidate keeps
// the destination extension because external encoders pick their container
// format from it.
func newCandidatePath(dest string) (string, error) {
	dir := filepath.Dir(dest)
	f, err := os.CreateTemp(dir, ".mtool-*"+filepath.Ext(dest))
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

// commit moves an accepted candidate to its final destination.
func commit(candidate, dest string) error {
	if err := os.Rename(candidate, dest); err != nil {
		return fmt.Errorf("commit candidate: %w", err)
	}
	return nil
}

func reduction(originalSize, finalSize int64) float64 {
	if originalSize <= 0 {
		return 0
	}
	return float64(originalSize-finalSize) * 100 / float64(originalSize)
}
