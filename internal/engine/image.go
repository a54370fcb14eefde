package engine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	// Register the WebP decoder so imaging.Open handles .webp sources.
	_ "golang.org/x/image/webp"
)

// CompressImage shrinks an image to the requested target size by stepping
// down JPEG quality, and for PNG sources by downscaling dimensions once
// quality alone stops helping. Candidates are always encoded as JPEG:
// imaging decodes every source into full-color NRGBA, which flattens
// palette and alpha variants before the quality parameter applies.
func (e *Engine) CompressImage(ctx context.Context, req Request) (*Result, error) {
	if err := req.Target.Validate(); err != nil {
		return nil, err
	}

	originalSize, err := fileSize(req.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	if res, ok := e.noop(req, originalSize); ok {
		return res, nil
	}

	img, err := imaging.Open(req.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}

	bounds := img.Bounds()
	png := strings.EqualFold(filepath.Ext(req.SourcePath), ".png")
	sched := newQualityScheduler(req.Target, png, bounds.Dx(), bounds.Dy())

	res, err := e.run(ctx, req, sched, &imageInvoker{img: img})
	if err != nil {
		return nil, err
	}

	if req.OutputPath != "" && req.OutputPath != req.SourcePath && isJPEG(req.SourcePath) {
		e.preserveMetadata(ctx, req.SourcePath, res.FinalPath)
	}
	return res, nil
}

// imageInvoker re-encodes a decoded source image in process.
type imageInvoker struct {
	img image.Image
}

func (iv *imageInvoker) Encode(ctx context.Context, p Params, outPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	img := iv.img
	if p.Width > 0 && p.Height > 0 {
		b := img.Bounds()
		if p.Width != b.Dx() || p.Height != b.Dy() {
			img = imaging.Resize(img, p.Width, p.Height, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.Quality)); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write candidate: %w", err)
	}
	return nil
}

func isJPEG(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jpg" || ext == ".jpeg"
}
