package engine

import (
	"context"
	"os/exec"

	"github.com/barasher/go-exiftool"
)

// preserveMetadata copies EXIF tags from the source onto a committed
// JPEG re-encode. Failures only cost metadata, never the artifact, so
// everything here degrades to a warning.
func (e *Engine) preserveMetadata(ctx context.Context, source, dest string) {
	if !e.exiftool.available() {
		e.log.WithField("file", dest).Debugf("metadata not preserved: %v", e.exiftool.err)
		return
	}
	if !hasMetadata(source) {
		return
	}

	cmd := exec.CommandContext(ctx, e.exiftool.path, "-TagsFromFile", source, "-overwrite_original", dest)
	if err := cmd.Run(); err != nil {
		e.log.WithField("file", dest).Warnf("metadata copy failed: %v", err)
	}
}

// hasMetadata reports whether the file carries any readable EXIF fields.
func hasMetadata(path string) bool {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return false
	}
	defer et.Close()

	metas := et.ExtractMetadata(path)
	if len(metas) == 0 || metas[0].Err != nil {
		return false
	}
	return len(metas[0].Fields) > 0
}
