package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Studio-Todos/mtool/internal/config"
	"github.com/Studio-Todos/mtool/internal/engine"

	"github.com/spf13/cobra"
)

var (
	videoOutput        string
	videoMaxIterations int
	videoPreset        string
)

// videoCmd groups the video subcommands.
var videoCmd = &cobra.Command{
	Use:   "video",
	Short: "Video tools: compress to a target size",
}

var videoCompressCmd = &cobra.Command{
	Use:   "compress",
	Short: "Compress a video to a target size",
	Long: `Compresses a video by re-encoding it with ffmpeg at a decreasing
target bitrate until the output size meets the target. Requires ffmpeg
and ffprobe on PATH.`,
}

// videoByPercentCmd compresses a video by a percentage reduction.
var videoByPercentCmd = &cobra.Command{
	Use:   "by-percent <file> <reduction>",
	Short: "Compress a video by a percentage (1-99)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reduction, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid reduction %q: %w", args[1], err)
		}
		req := engine.Request{
			SourcePath:    args[0],
			OutputPath:    videoOutput,
			Target:        engine.ByPercent(reduction),
			MaxIterations: videoMaxIterations,
			Preset:        videoPreset,
		}
		return runCompress(req, true)
	},
}

// videoToSizeCmd compresses a video to an absolute size in MB.
var videoToSizeCmd = &cobra.Command{
	Use:   "to-size <file> <size-in-MB>",
	Short: "Compress a video to a target size in megabytes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mb, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid size %q: %w", args[1], err)
		}
		req := engine.Request{
			SourcePath:    args[0],
			OutputPath:    videoOutput,
			Target:        engine.ToBytes(int64(mb * 1024 * 1024)),
			MaxIterations: videoMaxIterations,
			Preset:        videoPreset,
		}
		return runCompress(req, true)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{videoByPercentCmd, videoToSizeCmd} {
		cmd.Flags().StringVar(&videoOutput, "output", "", "output path (default: overwrite source)")
		cmd.Flags().IntVar(&videoMaxIterations, "max-iterations", 0, "iteration cap (default from config)")
		cmd.Flags().StringVar(&videoPreset, "preset", "",
			fmt.Sprintf("ffmpeg encoder preset, one of: %s (default from config)",
				strings.Join(config.Presets(), ", ")))
	}

	videoCompressCmd.AddCommand(videoByPercentCmd)
	videoCompressCmd.AddCommand(videoToSizeCmd)
	videoCmd.AddCommand(videoCompressCmd)
	rootCmd.AddCommand(videoCmd)
}
