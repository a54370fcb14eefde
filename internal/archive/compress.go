package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Compress writes inputPath (a file, or a directory for container
// formats) to outputPath in the given format.
func Compress(inputPath, outputPath string, format Format) error {
	info, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() && !format.IsContainer() {
		return fmt.Errorf("%s compresses a single file; use zip or tar.gz for directories", format)
	}

	switch format {
	case Zip:
		return compressZip(inputPath, outputPath, info.IsDir())
	case TarGz:
		return compressTarGz(inputPath, outputPath, info.IsDir())
	case Gzip, XZ, Zstd, LZ4:
		return compressStream(inputPath, outputPath, format)
	}
	return fmt.Errorf("unsupported archive format: %s", format)
}

func compressZip(inputPath, outputPath string, isDir bool) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	add := func(path, name string) error {
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	}

	if err := walkEntries(inputPath, isDir, add); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return out.Sync()
}

func compressTarGz(inputPath, outputPath string, isDir bool) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	tw := tar.NewWriter(gw)

	add := func(path, name string) error {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = name
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	}

	if err := walkEntries(inputPath, isDir, add); err != nil {
		tw.Close()
		gw.Close()
		return err
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalize tar: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("finalize gzip: %w", err)
	}
	return out.Sync()
}

// walkEntries calls add for every regular file under inputPath with its
// archive-relative name.
func walkEntries(inputPath string, isDir bool, add func(path, name string) error) error {
	if !isDir {
		return add(inputPath, filepath.Base(inputPath))
	}
	return filepath.WalkDir(inputPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(inputPath, path)
		if err != nil {
			return err
		}
		return add(path, filepath.ToSlash(rel))
	})
}

func compressStream(inputPath, outputPath string, format Format) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	w, err := newStreamWriter(out, format)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, in); err != nil {
		w.Close()
		return fmt.Errorf("compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", format, err)
	}
	return out.Sync()
}

func newStreamWriter(out io.Writer, format Format) (io.WriteCloser, error) {
	switch format {
	case Gzip:
		return gzip.NewWriter(out), nil
	case XZ:
		w, err := xz.NewWriter(out)
		if err != nil {
			return nil, fmt.Errorf("xz writer: %w", err)
		}
		return w, nil
	case Zstd:
		w, err := zstd.NewWriter(out)
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		return w, nil
	case LZ4:
		return lz4.NewWriter(out), nil
	}
	return nil, fmt.Errorf("unsupported stream format: %s", format)
}
