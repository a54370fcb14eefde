package engine

import (
	"context"
	"image"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noisyImage produces an image that resists compression so quality
// changes have a measurable effect on encoded size.
func noisyImage(w, h int) image.Image {
	rng := rand.New(rand.NewSource(7))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	return img
}

func TestCompressImageCommitsResult(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "photo.png")
	require.NoError(t, imaging.Save(noisyImage(240, 180), source))

	output := filepath.Join(dir, "small.png")
	req := Request{
		SourcePath:    source,
		OutputPath:    output,
		Target:        ByPercent(40),
		MaxIterations: 8,
	}

	res, err := testEngine(t).CompressImage(context.Background(), req)
	require.NoError(t, err)

	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), res.FinalSize)
	assert.Positive(t, res.Iterations)
	if !res.MetCap {
		assert.LessOrEqual(t, res.FinalSize, res.TargetSize)
	}

	srcInfo, err := os.Stat(source)
	require.NoError(t, err)
	assert.Equal(t, res.OriginalSize, srcInfo.Size(), "source must be untouched when output differs")
	assertNoCandidates(t, dir)
}

func TestCompressImageNoOpSkipsDecode(t *testing.T) {
	dir := t.TempDir()
	// Not a decodable image on purpose: the no-op check must run before
	// any decoding happens.
	source := filepath.Join(dir, "blob.jpg")
	require.NoError(t, os.WriteFile(source, []byte("not an image"), 0644))

	req := Request{
		SourcePath:    source,
		Target:        ToBytes(1 << 20),
		MaxIterations: 5,
	}
	res, err := testEngine(t).CompressImage(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.AlreadyMet)
}

func TestCompressImageUnreadableSource(t *testing.T) {
	req := Request{
		SourcePath:    filepath.Join(t.TempDir(), "missing.jpg"),
		Target:        ByPercent(50),
		MaxIterations: 5,
	}
	_, err := testEngine(t).CompressImage(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnreadable)
}

func TestCompressImageRejectsInvalidTarget(t *testing.T) {
	req := Request{
		SourcePath:    "whatever.jpg",
		Target:        ByPercent(100),
		MaxIterations: 5,
	}
	_, err := testEngine(t).CompressImage(context.Background(), req)
	require.Error(t, err)
}
