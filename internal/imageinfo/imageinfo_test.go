package imageinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image"
	"image/color"
)

func TestReadPlainImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pic.png")

	img := image.NewNRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	require.NoError(t, imaging.Save(img, path))

	info, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "PNG", info.Format)
	assert.Equal(t, 64, info.Width)
	assert.Equal(t, 48, info.Height)
	assert.Positive(t, info.SizeBytes)
	assert.Empty(t, info.EXIF, "a fresh PNG carries no EXIF block")
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.jpg"))
	assert.Error(t, err)
}

func TestReadNonImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "text.jpg")
	require.NoError(t, os.WriteFile(path, []byte("definitely not an image"), 0644))

	_, err := Read(path)
	assert.Error(t, err)
}
