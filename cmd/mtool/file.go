package main

import (
	"fmt"
	"strings"

	"github.com/Studio-Todos/mtool/internal/archive"

	"github.com/spf13/cobra"
)

var (
	fileFormat  string
	extractDest string
)

// fileCmd groups the archive subcommands.
var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "File tools: create and extract archives",
}

// fileCompressCmd creates an archive from a file or directory.
var fileCompressCmd = &cobra.Command{
	Use:   "compress <path> <archive>",
	Short: "Compress a file or directory into an archive",
	Long: fmt.Sprintf(`Compresses a file or directory into an archive. The format is
inferred from the archive name, or forced with --format.

Supported formats: %s. Stream formats (gz, xz, zst, lz4) accept a
single file only; zip and tar.gz accept directories.`,
		strings.Join(archive.Formats(), ", ")),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFileCompress(args[0], args[1])
	},
}

// fileExtractCmd extracts an archive.
var fileExtractCmd = &cobra.Command{
	Use:   "extract <archive>",
	Short: "Extract an archive into a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFileExtract(args[0])
	},
}

func init() {
	fileCompressCmd.Flags().StringVar(&fileFormat, "format", "", "archive format (default: inferred from archive name)")
	fileExtractCmd.Flags().StringVar(&extractDest, "dest", ".", "destination directory")

	fileCmd.AddCommand(fileCompressCmd)
	fileCmd.AddCommand(fileExtractCmd)
	rootCmd.AddCommand(fileCmd)
}

func runFileCompress(inputPath, outputPath string) error {
	var format archive.Format
	var err error
	if fileFormat != "" {
		format, err = archive.ParseFormat(fileFormat)
	} else {
		format, err = archive.DetectFormat(outputPath)
	}
	if err != nil {
		return err
	}

	if err := archive.Compress(inputPath, outputPath, format); err != nil {
		return fmt.Errorf("compression failed: %w", err)
	}

	if !quiet {
		fmt.Printf("Created %s archive: %s\n", format, outputPath)
	}
	return nil
}

func runFileExtract(archivePath string) error {
	if err := archive.Extract(archivePath, extractDest); err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if !quiet {
		fmt.Printf("Extracted %s to %s\n", archivePath, extractDest)
	}
	return nil
}
