package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/elasticpathing/traceprep/internal/batch"
	"github.com/elasticpathing/traceprep/internal/config"
	"github.com/elasticpathing/traceprep/internal/database"
	"github.com/elasticpathing/traceprep/internal/logging"
	"github.com/elasticpathing/traceprep/internal/matching"
	"github.com/elasticpathing/traceprep/internal/metrics"
	"github.com/elasticpathing/traceprep/internal/repository"
	"github.com/elasticpathing/traceprep/internal/spatial"
)

func main() {
	os.Exit(run())
}

func run() int {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	mapPath := flag.String("map", cfg.MapDBPath, "road network database")
	index := flag.String("index", cfg.NodeIndex, "node lookup: sql|rtree")
	flag.Usage = func() {
		fmt.Fprintln(os.Stdout, "usage: match [-map path] [-index sql|rtree] <root_directory>")
		flag.CommandLine.SetOutput(os.Stdout)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 || (*index != "sql" && *index != "rtree") {
		flag.Usage()
		return 2
	}
	root := flag.Arg(0)

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logger.Sync()

	formula, err := spatial.ParseFormula(cfg.MatchDistance)
	if err != nil {
		logger.Error("Invalid distance formula", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// 初始化数据库
	mapDB, err := database.Open(ctx, database.Config{Path: *mapPath, ReadOnly: true})
	if err != nil {
		logger.Error("Failed to open map database", zap.String("path", *mapPath), zap.Error(err))
		return 1
	}
	defer mapDB.Close()

	nodes := repository.NewNodeRepository(mapDB)
	var src matching.NodeSource = nodes
	if *index == "rtree" {
		idx, err := matching.LoadNodeIndex(ctx, nodes)
		if err != nil {
			logger.Error("Failed to build node index", zap.Error(err))
			return 1
		}
		logger.Info("Node index loaded", zap.Int("nodes", idx.Size()))
		src = idx
	}

	logger.Info("Matching traces",
		zap.String("map", *mapPath),
		zap.String("index", *index),
		zap.String("distance", string(formula)),
		zap.Float64("threshold_miles", cfg.ThresholdMiles),
		zap.Float64("search_radius_deg", cfg.SearchRadiusDeg))

	matcher := matching.NewMatcher(src, matching.Options{
		SearchRadius: cfg.SearchRadiusDeg,
		Threshold:    cfg.ThresholdMiles,
		Formula:      formula,
	}, logger)
	collector := metrics.NewCollector()
	driver := batch.NewDriver(matcher, cfg.StoreSuffix, collector, logger).WithProgress(os.Stdout)

	summary, runErr := driver.Run(ctx, root)
	if summary != nil {
		fmt.Println(summary.BadNodes())
	}

	if cfg.MetricsTextfile != "" {
		if err := collector.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn("Failed to write metrics", zap.String("path", cfg.MetricsTextfile), zap.Error(err))
		}
	}

	if runErr != nil {
		logger.Error("Batch failed", zap.Error(runErr))
		return 1
	}
	return 0
}
