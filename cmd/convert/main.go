package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/elasticpathing/traceprep/internal/config"
	"github.com/elasticpathing/traceprep/internal/logging"
	"github.com/elasticpathing/traceprep/internal/trace"
)

const usage = `usage: convert <input_file|input_dir> <output_directory> <output_basename>

Splits raw GPS logs into one-second trace stores. A directory input converts
every *.txt file below it; stores are then named <output_basename>_<file>_<n>.
`

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = func() { fmt.Fprint(os.Stdout, usage) }
	flag.Parse()
	if flag.NArg() != 3 {
		flag.Usage()
		return 2
	}
	input, outDir, base := flag.Arg(0), flag.Arg(1), flag.Arg(2)

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	conv := trace.NewConverter(trace.SegmenterOptions{
		SampleInterval: cfg.SampleIntervalMs,
		OutputStep:     cfg.OutputStepMs,
		MinStoreLines:  cfg.MinStoreLines,
	}, logger)

	info, err := os.Stat(input)
	if err != nil {
		logger.Error("Failed to read input", zap.String("input", input), zap.Error(err))
		return 1
	}

	if !info.IsDir() {
		stores := trace.FileStores{Dir: outDir, Base: base, Suffix: cfg.StoreSuffix}
		if _, err := conv.ConvertFile(ctx, input, stores); err != nil {
			logger.Error("Conversion failed", zap.Error(err))
			return 1
		}
		return 0
	}

	res, err := conv.ConvertDir(ctx, input, outDir, base, cfg.StoreSuffix)
	if err != nil {
		logger.Error("Conversion failed", zap.Error(err))
		return 1
	}
	logger.Info("Directory converted",
		zap.Int("converted", len(res.Converted)),
		zap.Int("failed", len(res.Failed)))
	if len(res.Failed) > 0 {
		return 1
	}
	return 0
}
