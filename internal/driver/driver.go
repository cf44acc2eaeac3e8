// Package driver wires file I/O, logging, tracing, and metrics around the
// pure topology/episode/rcarules core to realize the "run one step"
// operation: read events, a snapshot, and a rule set, and write one
// incident JSON per episode.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/kcalliga/rca-core/internal/episode"
	"github.com/kcalliga/rca-core/internal/incident"
	"github.com/kcalliga/rca-core/internal/logging"
	"github.com/kcalliga/rca-core/internal/rcarules"
	"github.com/kcalliga/rca-core/internal/topology"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Options are the driver surface's four inputs plus the window duration and
// optional overrides (§6 of the system's external interfaces).
type Options struct {
	EventsPath    string
	SnapshotPath  string
	RulesPath     string
	OutputDir     string
	Window        time.Duration
	KeyColumns    []string
	CacheCapacity int // query cache entries; 0 disables caching
	Parallelism   int // 0 uses GOMAXPROCS
}

// Result summarizes a completed run.
type Result struct {
	RunID            string
	EpisodesBuilt    int
	IncidentsWritten int
	IncidentPaths    []string
}

// RunStep performs one batch RCA step: build the topology graph, build
// episodes from the event table, evaluate rules per episode (in parallel,
// since the graph is read-only from this point on), and write one incident
// file per episode, sequentially, preserving episode order.
func RunStep(ctx context.Context, opts Options, metrics *Metrics) (*Result, error) {
	logger := logging.GetLogger("driver")
	tracer := otel.Tracer("rca-core/driver")

	runID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "driver.RunStep", trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()
	logger.InfoWithFields("starting run", logging.Field("run_id", runID))

	start := time.Now()
	result, err := runStep(ctx, opts, logger, tracer)
	if result != nil {
		result.RunID = runID
	}
	if metrics != nil {
		metrics.RunDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.RunFailures.Inc()
		} else {
			metrics.EpisodesBuilt.Add(float64(result.EpisodesBuilt))
			metrics.IncidentsWritten.Add(float64(result.IncidentsWritten))
		}
	}
	return result, err
}

func runStep(ctx context.Context, opts Options, logger *logging.Logger, tracer trace.Tracer) (*Result, error) {
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %q: %w", opts.OutputDir, err)
	}

	graph, err := loadGraph(ctx, tracer, opts.SnapshotPath, opts.CacheCapacity)
	if err != nil {
		return nil, err
	}

	events, present, err := loadEvents(ctx, tracer, opts.EventsPath)
	if err != nil {
		return nil, err
	}

	rules, err := rcarules.Load(opts.RulesPath)
	if err != nil {
		return nil, err
	}

	_, buildSpan := tracer.Start(ctx, "driver.buildEpisodes")
	episodes := episode.Build(events, opts.Window, opts.KeyColumns, present)
	buildSpan.End()
	logger.Info("built %d episode(s) from %d event(s)", len(episodes), len(events))

	candidatesByEpisode := make([][]rcarules.CandidateRoot, len(episodes))
	g, gctx := errgroup.WithContext(ctx)
	limit := opts.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)
	for i := range episodes {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			candidatesByEpisode[i] = rcarules.Evaluate(&episodes[i], rules, graph)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("rule evaluation failed: %w", err)
	}

	result := &Result{EpisodesBuilt: len(episodes)}
	for i := range episodes {
		inc := incident.FromEpisode(&episodes[i], candidatesByEpisode[i])
		path, err := incident.WriteFile(opts.OutputDir, inc)
		if err != nil {
			return result, err
		}
		result.IncidentsWritten++
		result.IncidentPaths = append(result.IncidentPaths, path)
	}

	logger.Info("wrote %d incident(s) to %s", result.IncidentsWritten, opts.OutputDir)
	return result, nil
}

func loadGraph(ctx context.Context, tracer trace.Tracer, snapshotPath string, cacheCapacity int) (rcarules.GraphQuerier, error) {
	_, span := tracer.Start(ctx, "driver.loadGraph")
	defer span.End()

	data, err := os.ReadFile(snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read topology snapshot %q: %w", snapshotPath, err)
	}
	snap, err := topology.ParseSnapshot(data)
	if err != nil {
		return nil, err
	}
	g := topology.BuildFromSnapshot(snap)
	if cacheCapacity > 0 {
		return topology.NewCachedGraph(g, cacheCapacity), nil
	}
	return g, nil
}

func loadEvents(ctx context.Context, tracer trace.Tracer, eventsPath string) ([]episode.Event, episode.ColumnsPresent, error) {
	_, span := tracer.Start(ctx, "driver.loadEvents")
	defer span.End()

	f, err := os.Open(eventsPath)
	if err != nil {
		return nil, episode.ColumnsPresent{}, fmt.Errorf("failed to open event table %q: %w", eventsPath, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(eventsPath), ".parquet") {
		info, err := f.Stat()
		if err != nil {
			return nil, episode.ColumnsPresent{}, err
		}
		return episode.LoadParquet(f, info.Size())
	}
	return episode.LoadCSV(f)
}
