package engine

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/Studio-Todos/mtool/internal/mediainfo"
)

// CompressVideo shrinks a video to the requested target size by
// re-encoding it through ffmpeg with a per-iteration target bitrate
// derived from the size ratio. Requires both ffmpeg and ffprobe.
func (e *Engine) CompressVideo(ctx context.Context, req Request) (*Result, error) {
	if err := req.Target.Validate(); err != nil {
		return nil, err
	}
	if !e.ffmpeg.available() {
		return nil, e.ffmpeg.err
	}
	if !e.ffprobe.available() {
		return nil, e.ffprobe.err
	}

	originalSize, err := fileSize(req.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	if res, ok := e.noop(req, originalSize); ok {
		return res, nil
	}

	bitrate, err := e.sourceBitrate(ctx, req.SourcePath, originalSize)
	if err != nil {
		return nil, err
	}

	targetSize := req.Target.Resolve(originalSize)
	sched := newBitrateScheduler(req.Target, bitrate, targetSize, originalSize, req.Preset)
	return e.run(ctx, req, sched, &videoInvoker{ffmpeg: e.ffmpeg.path, source: req.SourcePath})
}

// sourceBitrate probes the container bitrate. When ffprobe reports none,
// the bitrate is estimated from size and duration, with duration
// defaulting to one second as a documented degenerate fallback.
func (e *Engine) sourceBitrate(ctx context.Context, path string, size int64) (int64, error) {
	info, err := mediainfo.Inspect(ctx, e.ffprobe.path, path)
	if err != nil {
		return 0, fmt.Errorf("%w: analyze video: %v", ErrSourceUnreadable, err)
	}
	if _, ok := info.FirstVideoStream(); !ok {
		return 0, fmt.Errorf("%w: no video stream in %s", ErrEncodeFailed, path)
	}

	if rate := info.BitRate(); rate > 0 {
		return rate, nil
	}
	duration := info.DurationSeconds()
	if duration <= 0 {
		duration = 1
	}
	return int64(float64(size) * 8 / duration), nil
}

// videoInvoker shells out to ffmpeg for each candidate. A non-zero exit
// status is the sole failure signal; stderr is not inspected.
type videoInvoker struct {
	ffmpeg string
	source string
}

func (iv *videoInvoker) Encode(ctx context.Context, p Params, outPath string) error {
	args := []string{"-i", iv.source, "-y"}
	if p.BitrateKbps > 0 {
		args = append(args, "-b:v", fmt.Sprintf("%dk", p.BitrateKbps))
	}
	if p.Preset != "" {
		args = append(args, "-preset", p.Preset)
	}
	args = append(args, outPath)

	if err := exec.CommandContext(ctx, iv.ffmpeg, args...).Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}
