package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Extract unpacks archivePath into destDir, inferring the format from the
// archive name. Stream formats produce a single file named after the
// archive without its compression suffix.
func Extract(archivePath, destDir string) error {
	format, err := DetectFormat(archivePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	switch format {
	case Zip:
		return extractZip(archivePath, destDir)
	case TarGz:
		return extractTarGz(archivePath, destDir)
	case Gzip, XZ, Zstd, LZ4:
		return extractStream(archivePath, destDir, format)
	}
	return fmt.Errorf("unsupported archive format: %s", format)
}

func extractZip(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		target, err := entryPath(destDir, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open entry %s: %w", f.Name, err)
		}
		err = writeEntry(target, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func extractTarGz(archivePath, destDir string) error {
	in, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer in.Close()

	gr, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("gzip reader: %w", err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar: %w", err)
		}
		target, err := entryPath(destDir, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr); err != nil {
				return err
			}
		}
	}
}

func extractStream(archivePath, destDir string, format Format) error {
	in, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer in.Close()

	r, closeReader, err := newStreamReader(in, format)
	if err != nil {
		return err
	}
	defer closeReader()

	name := strings.TrimSuffix(filepath.Base(archivePath), "."+string(format))
	return writeEntry(filepath.Join(destDir, name), r)
}

func newStreamReader(in io.Reader, format Format) (io.Reader, func(), error) {
	switch format {
	case Gzip:
		r, err := gzip.NewReader(in)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip reader: %w", err)
		}
		return r, func() { r.Close() }, nil
	case XZ:
		r, err := xz.NewReader(in)
		if err != nil {
			return nil, nil, fmt.Errorf("xz reader: %w", err)
		}
		return r, func() {}, nil
	case Zstd:
		r, err := zstd.NewReader(in)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd reader: %w", err)
		}
		return r, r.Close, nil
	case LZ4:
		return lz4.NewReader(in), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unsupported stream format: %s", format)
}

// entryPath joins an archive entry name onto destDir, rejecting names
// that would escape it.
func entryPath(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes destination: %s", name)
	}
	return target, nil
}

func writeEntry(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, r); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return out.Sync()
}
