package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Studio-Todos/mtool/internal/config"
	"github.com/Studio-Todos/mtool/internal/engine"
	"github.com/Studio-Todos/mtool/internal/logger"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// newEngine builds a compression engine that prints one line per
// iteration, the way the compress commands report progress.
func newEngine(log *logrus.Logger, cfg *config.Config) *engine.Engine {
	return engine.New(log, engine.Options{
		FFmpegBin:   cfg.Tools.FFmpeg,
		FFprobeBin:  cfg.Tools.FFprobe,
		ExiftoolBin: cfg.Tools.Exiftool,
		OnProgress:  printIteration,
	})
}

func printIteration(p engine.Progress) {
	if quiet {
		return
	}
	if p.BitrateKbps > 0 {
		fmt.Printf("Iteration %d: Bitrate %dk, Size: %s\n",
			p.Iteration, p.BitrateKbps, humanize.Bytes(uint64(p.CandidateSize)))
		return
	}
	fmt.Printf("Iteration %d: Quality %d, Size: %s\n",
		p.Iteration, p.Quality, humanize.Bytes(uint64(p.CandidateSize)))
}

// printTarget announces the job before the loop starts.
func printTarget(sourceSize, targetSize int64, target engine.TargetSpec) {
	if quiet {
		return
	}
	fmt.Printf("Original size: %s\n", humanize.Bytes(uint64(sourceSize)))
	fmt.Printf("Target size: %s (%s)\n", humanize.Bytes(uint64(targetSize)), target)
}

// reportResult prints the outcome. Best-effort and no-op outcomes are
// not errors; only hard failures propagate to the caller.
func reportResult(res *engine.Result) {
	if quiet {
		return
	}
	if res.AlreadyMet {
		fmt.Printf("File is already smaller than target size (%s <= %s)\n",
			humanize.Bytes(uint64(res.FinalSize)), humanize.Bytes(uint64(res.TargetSize)))
		return
	}
	if res.MetCap {
		fmt.Printf("Warning: could not achieve target size within %d iterations\n", res.Iterations)
	}
	fmt.Printf("Final size: %s\n", humanize.Bytes(uint64(res.FinalSize)))
	fmt.Printf("Actual reduction: %.1f%%\n", res.Reduction)
}

// applyDefaults fills iteration caps and the encoder preset from
// configuration when the flags were left unset.
func applyDefaults(req *engine.Request, cfg *config.Config, video bool) {
	if req.MaxIterations == 0 {
		switch {
		case video && req.Target.IsPercent():
			req.MaxIterations = cfg.Compression.Video.MaxIterationsByPercent
		case video:
			req.MaxIterations = cfg.Compression.Video.MaxIterationsToSize
		case req.Target.IsPercent():
			req.MaxIterations = cfg.Compression.Image.MaxIterationsByPercent
		default:
			req.MaxIterations = cfg.Compression.Image.MaxIterationsToSize
		}
	}
	if video && req.Preset == "" {
		req.Preset = cfg.Compression.Video.Preset
	}
}

// runCompress executes one compression job end to end.
func runCompress(req engine.Request, video bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := setupLogger(cfg)
	eng := newEngine(log, cfg)
	applyDefaults(&req, cfg, video)
	logger.WithFile(log, req.SourcePath).WithField("target", req.Target.String()).Debug("starting compression job")

	if info, err := os.Stat(req.SourcePath); err == nil {
		printTarget(info.Size(), req.Target.Resolve(info.Size()), req.Target)
	}

	ctx := context.Background()
	var res *engine.Result
	if video {
		res, err = eng.CompressVideo(ctx, req)
	} else {
		res, err = eng.CompressImage(ctx, req)
	}
	if err != nil {
		return err
	}

	if !res.AlreadyMet && res.Iterations == 0 {
		// Shouldn't happen, but never report a result that wasn't produced.
		return fmt.Errorf("no result produced for %s", req.SourcePath)
	}
	reportResult(res)
	return nil
}
