package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Studio-Todos/mtool/internal/engine"
	"github.com/Studio-Todos/mtool/internal/imageinfo"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	imageOutput        string
	imageMaxIterations int
	resizeOutput       string
	resizeSize         string
)

// imageCmd groups the image subcommands.
var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Image tools: compress, resize, info",
}

var imageCompressCmd = &cobra.Command{
	Use:   "compress",
	Short: "Compress an image to a target size",
}

// imageByPercentCmd compresses an image by a percentage reduction.
var imageByPercentCmd = &cobra.Command{
	Use:   "by-percent <file> <reduction>",
	Short: "Compress an image by a percentage (1-99)",
	Long: `Compresses an image so that its size is reduced by the given
percentage. The image is re-encoded at decreasing quality until the
target is met; PNG sources additionally fall back to downscaling.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reduction, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid reduction %q: %w", args[1], err)
		}
		req := engine.Request{
			SourcePath:    args[0],
			OutputPath:    imageOutput,
			Target:        engine.ByPercent(reduction),
			MaxIterations: imageMaxIterations,
		}
		return runCompress(req, false)
	},
}

// imageToSizeCmd compresses an image to an absolute size in KB.
var imageToSizeCmd = &cobra.Command{
	Use:   "to-size <file> <size-in-KB>",
	Short: "Compress an image to a target size in kilobytes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kb, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid size %q: %w", args[1], err)
		}
		req := engine.Request{
			SourcePath:    args[0],
			OutputPath:    imageOutput,
			Target:        engine.ToBytes(kb * 1024),
			MaxIterations: imageMaxIterations,
		}
		return runCompress(req, false)
	},
}

// imageResizeCmd resizes an image to explicit dimensions.
var imageResizeCmd = &cobra.Command{
	Use:   "resize <file>",
	Short: "Resize an image to WxH dimensions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImageResize(args[0])
	},
}

// imageInfoCmd prints image properties and an EXIF summary.
var imageInfoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show image format, dimensions, size and EXIF data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImageInfo(args[0])
	},
}

func init() {
	imageByPercentCmd.Flags().StringVar(&imageOutput, "output", "", "output path (default: overwrite source)")
	imageByPercentCmd.Flags().IntVar(&imageMaxIterations, "max-iterations", 0, "iteration cap (default from config)")
	imageToSizeCmd.Flags().StringVar(&imageOutput, "output", "", "output path (default: overwrite source)")
	imageToSizeCmd.Flags().IntVar(&imageMaxIterations, "max-iterations", 0, "iteration cap (default from config)")

	imageResizeCmd.Flags().StringVar(&resizeSize, "size", "", "target dimensions as WxH, e.g. 800x600")
	imageResizeCmd.Flags().StringVar(&resizeOutput, "output", "", "output path (default: overwrite source)")
	imageResizeCmd.MarkFlagRequired("size")

	imageCompressCmd.AddCommand(imageByPercentCmd)
	imageCompressCmd.AddCommand(imageToSizeCmd)
	imageCmd.AddCommand(imageCompressCmd)
	imageCmd.AddCommand(imageResizeCmd)
	imageCmd.AddCommand(imageInfoCmd)
	rootCmd.AddCommand(imageCmd)
}

// parseDimensions parses a WxH string into positive width and height.
func parseDimensions(s string) (int, int, error) {
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("dimensions must be WxH, got %q", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width %q: %w", parts[0], err)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height %q: %w", parts[1], err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("dimensions must be positive, got %dx%d", w, h)
	}
	return w, h, nil
}

func runImageResize(path string) error {
	width, height, err := parseDimensions(resizeSize)
	if err != nil {
		return err
	}

	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}

	out := resizeOutput
	if out == "" {
		out = path
	}

	resized := imaging.Resize(img, width, height, imaging.Lanczos)
	if err := imaging.Save(resized, out); err != nil {
		return fmt.Errorf("failed to save resized image: %w", err)
	}

	if !quiet {
		fmt.Printf("Resized %s to %dx%d -> %s\n", path, width, height, out)
	}
	return nil
}

func runImageInfo(path string) error {
	info, err := imageinfo.Read(path)
	if err != nil {
		return err
	}

	fmt.Printf("File: %s\n", info.Path)
	fmt.Printf("Format: %s\n", info.Format)
	fmt.Printf("Dimensions: %dx%d\n", info.Width, info.Height)
	fmt.Printf("Size: %s\n", humanize.Bytes(uint64(info.SizeBytes)))

	if len(info.EXIF) == 0 {
		fmt.Println("EXIF: none")
		return nil
	}

	fmt.Println("EXIF:")
	for _, name := range imageinfo.TagNames() {
		if value, ok := info.EXIF[name]; ok {
			fmt.Printf("  %s: %s\n", name, value)
		}
	}
	return nil
}
