package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedInvoker writes candidates with predetermined sizes, one entry
// per invocation.
type scriptedInvoker struct {
	sizes []int64
	errs  []error
	calls int
}

func (s *scriptedInvoker) Encode(_ context.Context, _ Params, outPath string) error {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return s.errs[i]
	}
	if i >= len(s.sizes) {
		return fmt.Errorf("invoker called %d times, only %d scripted", i+1, len(s.sizes))
	}
	return os.WriteFile(outPath, bytes.Repeat([]byte{0xAB}, int(s.sizes[i])), 0644)
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.ErrorLevel)
	return New(log, Options{})
}

func writeSource(t *testing.T, dir string, size int) string {
	t.Helper()
	path := filepath.Join(dir, "source.jpg")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0x42}, size), 0644))
	return path
}

// assertNoCandidates fails if any temporary candidate survived the run.
func assertNoCandidates(t *testing.T, dir string) {
	t.Helper()
	leftovers, err := filepath.Glob(filepath.Join(dir, ".mtool-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "temporary candidates left behind")
}

func TestRunCommitsWhenTargetMet(t *testing.T) {
	dir := t.TempDir()
	source := writeSource(t, dir, 1_000_000)

	inv := &scriptedInvoker{sizes: []int64{700_000, 480_000}}
	req := Request{
		SourcePath:    source,
		Target:        ByPercent(50),
		MaxIterations: 10,
	}

	res, err := testEngine(t).run(context.Background(), req, newQualityScheduler(req.Target, false, 0, 0), inv)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, int64(1_000_000), res.OriginalSize)
	assert.Equal(t, int64(500_000), res.TargetSize)
	assert.Equal(t, int64(480_000), res.FinalSize)
	assert.InDelta(t, 52.0, res.Reduction, 0.01)
	assert.False(t, res.MetCap)
	assert.Equal(t, source, res.FinalPath)

	info, err := os.Stat(source)
	require.NoError(t, err)
	assert.Equal(t, int64(480_000), info.Size())
	assertNoCandidates(t, dir)
}

func TestRunCapExhaustionCommitsLastCandidate(t *testing.T) {
	dir := t.TempDir()
	source := writeSource(t, dir, 1_000_000)

	inv := &scriptedInvoker{sizes: []int64{800_000, 700_000, 600_000}}
	req := Request{
		SourcePath:    source,
		Target:        ByPercent(50),
		MaxIterations: 3,
	}

	res, err := testEngine(t).run(context.Background(), req, newQualityScheduler(req.Target, false, 0, 0), inv)
	require.NoError(t, err)

	assert.True(t, res.MetCap)
	assert.Equal(t, 3, res.Iterations)
	assert.Equal(t, 3, inv.calls)
	assert.Equal(t, int64(600_000), res.FinalSize)

	info, err := os.Stat(source)
	require.NoError(t, err)
	assert.Equal(t, int64(600_000), info.Size(), "last candidate must be committed, not deleted")
	assertNoCandidates(t, dir)
}

func TestRunCommitsToSeparateOutput(t *testing.T) {
	dir := t.TempDir()
	source := writeSource(t, dir, 1_000_000)
	output := filepath.Join(dir, "out.jpg")

	inv := &scriptedInvoker{sizes: []int64{400_000}}
	req := Request{
		SourcePath:    source,
		OutputPath:    output,
		Target:        ByPercent(50),
		MaxIterations: 5,
	}

	res, err := testEngine(t).run(context.Background(), req, newQualityScheduler(req.Target, false, 0, 0), inv)
	require.NoError(t, err)
	assert.Equal(t, output, res.FinalPath)

	info, err := os.Stat(source)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), info.Size(), "source must be untouched")

	info, err = os.Stat(output)
	require.NoError(t, err)
	assert.Equal(t, int64(400_000), info.Size())
	assertNoCandidates(t, dir)
}

func TestRunNoOpWhenTargetAlreadyMet(t *testing.T) {
	dir := t.TempDir()
	source := writeSource(t, dir, 40*1024)

	inv := &scriptedInvoker{}
	req := Request{
		SourcePath:    source,
		Target:        ToBytes(50 * 1024),
		MaxIterations: 5,
	}

	res, err := testEngine(t).run(context.Background(), req, newQualityScheduler(req.Target, false, 0, 0), inv)
	require.NoError(t, err)

	assert.True(t, res.AlreadyMet)
	assert.Equal(t, int64(40*1024), res.FinalSize)
	assert.Zero(t, inv.calls, "no encode may happen on the no-op path")

	info, err := os.Stat(source)
	require.NoError(t, err)
	assert.Equal(t, int64(40*1024), info.Size())
	assertNoCandidates(t, dir)
}

func TestRunAbortsOnEncodeFailure(t *testing.T) {
	dir := t.TempDir()
	source := writeSource(t, dir, 1_000_000)
	output := filepath.Join(dir, "out.jpg")

	inv := &scriptedInvoker{
		sizes: []int64{800_000, 0},
		errs:  []error{nil, errors.New("codec crashed")},
	}
	req := Request{
		SourcePath:    source,
		OutputPath:    output,
		Target:        ByPercent(50),
		MaxIterations: 5,
	}

	_, err := testEngine(t).run(context.Background(), req, newQualityScheduler(req.Target, false, 0, 0), inv)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEncodeFailed))

	info, err := os.Stat(source)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), info.Size(), "source must be untouched after encode failure")

	_, err = os.Stat(output)
	assert.True(t, os.IsNotExist(err), "no partial output may exist")
	assertNoCandidates(t, dir)
}

func TestRunSourceMissing(t *testing.T) {
	req := Request{
		SourcePath:    filepath.Join(t.TempDir(), "nope.jpg"),
		Target:        ByPercent(50),
		MaxIterations: 5,
	}

	_, err := testEngine(t).run(context.Background(), req, newQualityScheduler(req.Target, false, 0, 0), &scriptedInvoker{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceUnreadable))
}

func TestRunRejectsNonPositiveIterationCap(t *testing.T) {
	req := Request{
		SourcePath: "irrelevant",
		Target:     ByPercent(50),
	}
	_, err := testEngine(t).run(context.Background(), req, newQualityScheduler(req.Target, false, 0, 0), &scriptedInvoker{})
	require.Error(t, err)
}

func TestRunEmitsProgressPerIteration(t *testing.T) {
	dir := t.TempDir()
	source := writeSource(t, dir, 1_000_000)

	var seen []Progress
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	e := New(log, Options{OnProgress: func(p Progress) { seen = append(seen, p) }})

	inv := &scriptedInvoker{sizes: []int64{700_000, 480_000}}
	req := Request{
		SourcePath:    source,
		Target:        ByPercent(50),
		MaxIterations: 10,
	}
	_, err := e.run(context.Background(), req, newQualityScheduler(req.Target, false, 0, 0), inv)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, 1, seen[0].Iteration)
	assert.Equal(t, 95, seen[0].Quality)
	assert.Equal(t, int64(700_000), seen[0].CandidateSize)
	assert.Equal(t, 2, seen[1].Iteration)
	assert.Equal(t, 85, seen[1].Quality)
	assert.Equal(t, int64(480_000), seen[1].CandidateSize)
}
