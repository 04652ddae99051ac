package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gookit/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/timewinder-dev/crawlgraph/config"
	"github.com/timewinder-dev/crawlgraph/crawl"
	"github.com/timewinder-dev/crawlgraph/provider"
	"golang.org/x/sync/errgroup"
)

var (
	configPath string
	graphPath  string
	scriptPath string
	serviceURL string

	depthFlag        int
	workersFlag      int
	engineFlag       string
	cacheSizeFlag    int
	parallelRunsFlag int

	jsonFlag        bool
	metricsTextfile string
)

var runCmd = &cobra.Command{
	Use:   "run START [START...]",
	Short: "Crawl outward from one or more start nodes",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCommand,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&configPath, "config", "", "TOML configuration file")
	f.StringVar(&graphPath, "graph", "", "Read neighbors from a TOML adjacency file")
	f.StringVar(&scriptPath, "script", "", "Compute neighbors with a Starlark script defining neighbors(node)")
	f.StringVar(&serviceURL, "url", "", "Neighbor service base URL")
	f.IntVarP(&depthFlag, "depth", "d", config.DefaultMaxDepth, "Maximum number of hops from the start node")
	f.IntVarP(&workersFlag, "workers", "w", config.DefaultWorkers, "Number of concurrent workers")
	f.StringVar(&engineFlag, "engine", config.EngineMulti, "Traversal engine (multi or single)")
	f.IntVar(&cacheSizeFlag, "cache-size", provider.DefaultCacheSize, "Neighbor cache entries shared by all workers (0 disables)")
	f.IntVar(&parallelRunsFlag, "parallel-runs", 1, "Start nodes crawled at the same time")
	f.BoolVar(&jsonFlag, "json", false, "Print results as JSON; progress goes to the log instead")
	f.StringVar(&metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file when done")
	runCmd.MarkFlagsMutuallyExclusive("graph", "script", "url")
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("depth") {
		cfg.Crawl.MaxDepth = depthFlag
	}
	if flags.Changed("workers") {
		cfg.Crawl.Workers = workersFlag
	}
	if flags.Changed("engine") {
		cfg.Crawl.Engine = engineFlag
	}
	if flags.Changed("parallel-runs") {
		cfg.Crawl.ParallelRuns = parallelRunsFlag
	}
	if flags.Changed("cache-size") {
		cfg.Cache.Size = cacheSizeFlag
	}
	if flags.Changed("url") {
		cfg.Service.URL = serviceURL
	}
}

func buildFactory(cfg *config.Config) (provider.Factory, error) {
	switch {
	case graphPath != "":
		m, err := provider.LoadGraphFile(graphPath)
		if err != nil {
			return nil, err
		}
		return provider.StaticFactory(m), nil
	case scriptPath != "":
		return provider.NewStarlarkFactory(scriptPath)
	default:
		return provider.NewHTTPFactory(cfg.HTTP())
	}
}

func buildEngine(cfg *config.Config, ec crawl.Config) (crawl.Engine, error) {
	if cfg.Crawl.Engine == config.EngineSingle {
		return crawl.InitSingleThread(ec)
	}
	return crawl.NewMultiThread(ec)
}

func runCommand(cmd *cobra.Command, starts []string) error {
	// Config file first, then flags on top
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	factory, err := buildFactory(cfg)
	if err != nil {
		return fmt.Errorf("building neighbor provider: %w", err)
	}

	// One cache in front of every worker and every start node
	var cache *provider.Cache
	if cfg.Cache.Size > 0 {
		cache = provider.NewCache(cfg.Cache.Size)
		factory = cache.Wrap(factory)
	}

	// Stdout is reserved for the JSON document, so progress lines go to the log
	var reporter crawl.Reporter = &crawl.ColorReporter{Writer: cmd.ErrOrStderr()}
	if jsonFlag {
		reporter = &crawl.LogReporter{Logger: log.Logger}
	}

	reg := prometheus.NewRegistry()
	engine, err := buildEngine(cfg, crawl.Config{
		MaxDepth:  cfg.Crawl.MaxDepth,
		Workers:   cfg.Crawl.Workers,
		Providers: factory,
		Reporter:  reporter,
		Metrics:   crawl.NewMetrics(reg),
	})
	if err != nil {
		return err
	}

	if !jsonFlag {
		fmt.Fprintln(cmd.ErrOrStderr(), color.Cyan.Sprintf("Crawling %d start node(s) with the %s engine...", len(starts), cfg.Crawl.Engine))
	}

	// Each start node is an independent traversal; results keep argument order
	results := make([]*crawl.Result, len(starts))
	var g errgroup.Group
	g.SetLimit(cfg.Crawl.ParallelRuns)
	for i, start := range starts {
		i, start := i, start
		g.Go(func() error {
			res, err := engine.Run(start)
			if err != nil {
				return fmt.Errorf("crawling from %q: %w", start, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if cache != nil {
		stats := cache.Stats()
		log.Debug().
			Int64("hits", stats.Hits).
			Int64("misses", stats.Misses).
			Int64("evictions", stats.Evictions).
			Int("entries", stats.Size).
			Msg("Neighbor cache")
	}

	if jsonFlag {
		err = writeJSON(cmd.OutOrStdout(), results)
	} else {
		writeText(cmd.OutOrStdout(), results)
	}
	if err != nil {
		return err
	}

	// Metrics are written last so they cover every run
	if metricsTextfile != "" {
		if err := prometheus.WriteToTextfile(metricsTextfile, reg); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}

func writeText(w io.Writer, results []*crawl.Result) {
	for _, res := range results {
		fmt.Fprint(w, crawl.FormatResult(res))
		fmt.Fprint(w, crawl.FormatStatistics(res.Statistics))
		fmt.Fprintln(w)
	}
}

type jsonStatistics struct {
	Visited        int     `json:"visited"`
	Lookups        int     `json:"lookups"`
	LookupErrors   int     `json:"lookup_errors"`
	Duplicates     int     `json:"duplicates"`
	DeepestLevel   int     `json:"deepest_level"`
	Workers        int     `json:"workers"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

type jsonResult struct {
	RunID      string         `json:"run_id"`
	Start      string         `json:"start"`
	MaxDepth   int            `json:"max_depth"`
	Nodes      []string       `json:"nodes"`
	Statistics jsonStatistics `json:"statistics"`
}

func writeJSON(w io.Writer, results []*crawl.Result) error {
	out := make([]jsonResult, 0, len(results))
	for _, res := range results {
		s := res.Statistics
		out = append(out, jsonResult{
			RunID:    res.RunID,
			Start:    res.Start,
			MaxDepth: res.MaxDepth,
			Nodes:    res.Nodes,
			Statistics: jsonStatistics{
				Visited:        s.Visited,
				Lookups:        s.Lookups,
				LookupErrors:   s.LookupErrors,
				Duplicates:     s.Duplicates,
				DeepestLevel:   s.DeepestLevel,
				Workers:        s.Workers,
				ElapsedSeconds: s.Elapsed.Seconds(),
			},
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
