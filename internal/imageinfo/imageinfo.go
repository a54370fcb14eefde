// Package imageinfo reads image properties and a summary of common EXIF
// tags for the image info command.
package imageinfo

import (
	"fmt"
	"image"
	"os"
	"strings"

	// Decoders for the formats the toolbox handles.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/rwcarlsen/goexif/exif"
)

// Info describes an image file.
type Info struct {
	Path      string
	Format    string
	Width     int
	Height    int
	SizeBytes int64
	EXIF      map[string]string
}

// exifTags are the tags surfaced in the summary, in display order.
var exifTags = []exif.FieldName{
	exif.Make,
	exif.Model,
	exif.Software,
	exif.DateTime,
	exif.DateTimeOriginal,
	exif.Orientation,
}

// TagNames returns the EXIF tag names in display order.
func TagNames() []string {
	names := make([]string, len(exifTags))
	for i, tag := range exifTags {
		names[i] = string(tag)
	}
	return names
}

// Read decodes the image header and any EXIF block of the named file.
// A file without EXIF data yields an empty EXIF map, not an error.
func Read(path string) (*Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat image: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}

	info := &Info{
		Path:      path,
		Format:    strings.ToUpper(format),
		Width:     cfg.Width,
		Height:    cfg.Height,
		SizeBytes: stat.Size(),
		EXIF:      map[string]string{},
	}

	if _, err := f.Seek(0, 0); err != nil {
		return info, nil
	}
	x, err := exif.Decode(f)
	if err != nil {
		return info, nil
	}
	for _, tag := range exifTags {
		t, err := x.Get(tag)
		if err != nil {
			continue
		}
		info.EXIF[string(tag)] = strings.Trim(t.String(), `"`)
	}
	return info, nil
}
