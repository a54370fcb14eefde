// Package archive provides single-pass compression and extraction for the
// file command group. Containers (zip, tar) come from the standard
// library; stream codecs cover gzip, xz, zstd, and lz4.
package archive

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies an archive or stream-compression format.
type Format string

const (
	Zip   Format = "zip"
	TarGz Format = "tar.gz"
	Gzip  Format = "gz"
	XZ    Format = "xz"
	Zstd  Format = "zst"
	LZ4   Format = "lz4"
)

// Formats lists every supported format name.
func Formats() []string {
	return []string{string(Zip), string(TarGz), string(Gzip), string(XZ), string(Zstd), string(LZ4)}
}

// ParseFormat converts a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "zip":
		return Zip, nil
	case "tar.gz", "tgz":
		return TarGz, nil
	case "gz", "gzip":
		return Gzip, nil
	case "xz":
		return XZ, nil
	case "zst", "zstd":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	}
	return "", fmt.Errorf("unsupported archive format: %s", name)
}

// DetectFormat infers the format from an archive file name.
func DetectFormat(path string) (Format, error) {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".zip"):
		return Zip, nil
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return TarGz, nil
	case strings.HasSuffix(name, ".gz"):
		return Gzip, nil
	case strings.HasSuffix(name, ".xz"):
		return XZ, nil
	case strings.HasSuffix(name, ".zst"):
		return Zstd, nil
	case strings.HasSuffix(name, ".lz4"):
		return LZ4, nil
	}
	return "", fmt.Errorf("cannot infer archive format from %s", filepath.Base(path))
}

// IsContainer reports whether the format holds multiple entries. Stream
// formats compress exactly one file.
func (f Format) IsContainer() bool {
	return f == Zip || f == TarGz
}
