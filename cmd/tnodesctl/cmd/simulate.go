package cmd

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Davknapp/tnodes/internal/testutil"
	"github.com/Davknapp/tnodes/internal/tnodes"
	"github.com/Davknapp/tnodes/pkg/archive"
	"github.com/Davknapp/tnodes/pkg/compress"
	"github.com/Davknapp/tnodes/pkg/config"
	apperrors "github.com/Davknapp/tnodes/pkg/errors"
	"github.com/Davknapp/tnodes/pkg/parallel"
	"github.com/Davknapp/tnodes/pkg/resultstore"
	"github.com/Davknapp/tnodes/pkg/transport"
)

var (
	simNumRanks        int
	simElementsPerRank int
	simRunID           string
	simOutputDir       string
	simPersist         bool
	simArchiveResults  bool
)

// simulateCmd runs the numbering algorithm across a cohort of simulated
// ranks joined by an in-process transport fabric.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the node-numbering algorithm over a synthetic forest",
	Long: `simulate builds a synthetic chain-topology forest split across
--ranks simulated processes, runs Number() for every rank concurrently
over an in-process transport fabric, and reports the resulting global
node count and per-rank timings.`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntVar(&simNumRanks, "ranks", 4, "Number of simulated ranks")
	simulateCmd.Flags().IntVar(&simElementsPerRank, "elements-per-rank", 16, "Number of elements owned by each rank")
	simulateCmd.Flags().StringVar(&simRunID, "run-id", "", "Run identifier (auto-generated if empty)")
	simulateCmd.Flags().StringVar(&simOutputDir, "output", "./output", "Directory to write the run summary to")
	simulateCmd.Flags().BoolVar(&simPersist, "persist", false, "Save per-rank summaries to the resultstore")
	simulateCmd.Flags().BoolVar(&simArchiveResults, "archive", false, "Archive per-rank node-id vectors via the configured archive backend")
}

// rankOutcome is one rank's result from the worker pool driving Number().
type rankOutcome struct {
	rank    int
	output  *tnodes.Output
	summary *resultstore.RunSummary
}

func runSimulate(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	if simNumRanks < 1 {
		return fmt.Errorf("--ranks must be at least 1")
	}
	if simElementsPerRank < 1 {
		return fmt.Errorf("--elements-per-rank must be at least 1")
	}

	runID := simRunID
	if runID == "" {
		runID = fmt.Sprintf("sim-%s", time.Now().Format("20060102-150405"))
	}

	log.Info("=== tnodes simulate ===")
	log.Info("Ranks:             %d", simNumRanks)
	log.Info("Elements per rank: %d", simElementsPerRank)
	log.Info("Run ID:            %s", runID)
	log.Info("")

	fixture := testutil.BuildChainFixture(simNumRanks, simElementsPerRank)
	fabric := transport.NewLocalFabric(simNumRanks)

	pool := parallel.NewWorkerPool[int, *rankOutcome](
		parallel.DefaultPoolConfig().WithWorkers(simNumRanks),
	)

	ctx := cmd.Context()
	results := pool.ExecuteFunc(ctx, rankList(simNumRanks), func(ctx context.Context, rank int) (*rankOutcome, error) {
		comm := fabric.Comm(rank)
		out, err := tnodes.Number(ctx, fixture.Forests[rank], fixture.Ghosts[rank], comm)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeTransportError, fmt.Sprintf("rank %d numbering failed", rank), err)
		}
		hist := make(map[uint8]int, len(out.ConfigHistogram()))
		for cfg, n := range out.ConfigHistogram() {
			hist[cfg] = n
		}
		return &rankOutcome{
			rank:   rank,
			output: out,
			summary: &resultstore.RunSummary{
				RunID:            runID,
				Rank:             rank,
				NumRanks:         simNumRanks,
				NumLocalElements: out.NumLocalElements(),
				GlobalNodeCount:  out.GlobalNodeCount(),
				OwnedCount:       out.OwnedCount(),
				SharedCount:      out.SharedCount(),
				GlobalOffset:     out.GlobalOffset(),
				ConfigHistogram:  hist,
				PhaseTimings:     out.Timer().ToMap(),
			},
		}, nil
	})

	outcomes := make([]*rankOutcome, 0, simNumRanks)
	for _, r := range results {
		if r.Error != nil {
			return fmt.Errorf("simulation failed: %w", r.Error)
		}
		outcomes = append(outcomes, r.Result)
	}

	globalNodeCount := 0
	if len(outcomes) > 0 {
		globalNodeCount = outcomes[0].output.GlobalNodeCount()
	}

	log.Info("=== Results ===")
	for _, o := range outcomes {
		log.Info("  rank %d: %d local elements, %d owned, %d shared, global node count %d",
			o.rank, o.output.NumLocalElements(), o.output.OwnedCount(), o.output.SharedCount(), o.output.GlobalNodeCount())
	}
	log.Info("")
	log.Info("Global node count: %d", globalNodeCount)

	if err := os.MkdirAll(simOutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	summaryPath := filepath.Join(simOutputDir, runID+".json")
	if err := writeSimulationSummary(summaryPath, runID, globalNodeCount, outcomes); err != nil {
		return err
	}
	log.Info("Summary written to: %s", summaryPath)

	if simPersist {
		if err := persistSummaries(ctx, log, outcomes); err != nil {
			return err
		}
	} else {
		log.Debug("no resultstore configured for this run, skipping persist")
	}

	if simArchiveResults {
		if err := archiveRun(ctx, log, runID, outcomes); err != nil {
			return err
		}
	} else {
		log.Debug("no archive backend configured for this run, skipping archive")
	}

	return nil
}

func rankList(n int) []int {
	ranks := make([]int, n)
	for i := range ranks {
		ranks[i] = i
	}
	return ranks
}

func writeSimulationSummary(path, runID string, globalNodeCount int, outcomes []*rankOutcome) error {
	type rankReport struct {
		Rank             int                    `json:"rank"`
		NumLocalElements int                    `json:"num_local_elements"`
		GlobalNodeCount  int                    `json:"global_node_count"`
		OwnedCount       int                    `json:"owned_count"`
		SharedCount      int                    `json:"shared_count"`
		GlobalOffset     int                    `json:"global_offset"`
		ConfigHistogram  map[uint8]int          `json:"config_histogram"`
		PhaseTimings     map[string]interface{} `json:"phase_timings"`
	}

	report := struct {
		RunID           string       `json:"run_id"`
		NumRanks        int          `json:"num_ranks"`
		GlobalNodeCount int          `json:"global_node_count"`
		Ranks           []rankReport `json:"ranks"`
	}{
		RunID:           runID,
		NumRanks:        len(outcomes),
		GlobalNodeCount: globalNodeCount,
	}
	for _, o := range outcomes {
		report.Ranks = append(report.Ranks, rankReport{
			Rank:             o.rank,
			NumLocalElements: o.output.NumLocalElements(),
			GlobalNodeCount:  o.output.GlobalNodeCount(),
			OwnedCount:       o.output.OwnedCount(),
			SharedCount:      o.output.SharedCount(),
			GlobalOffset:     o.output.GlobalOffset(),
			ConfigHistogram:  o.summary.ConfigHistogram,
			PhaseTimings:     o.output.Timer().ToMap(),
		})
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run summary: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func persistSummaries(ctx context.Context, log interface{ Info(string, ...interface{}) }, outcomes []*rankOutcome) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config for resultstore: %w", err)
	}

	repo, err := resultstore.NewRepository(&resultstore.DBConfig{
		Type:     cfg.ResultStore.Type,
		Host:     cfg.ResultStore.Host,
		Port:     cfg.ResultStore.Port,
		Database: cfg.ResultStore.Database,
		User:     cfg.ResultStore.User,
		Password: cfg.ResultStore.Password,
		MaxConns: cfg.ResultStore.MaxConns,
	})
	if err != nil {
		return fmt.Errorf("failed to open resultstore: %w", err)
	}
	defer repo.Close()

	for _, o := range outcomes {
		if err := repo.SaveRun(ctx, o.summary); err != nil {
			return fmt.Errorf("failed to save rank %d summary: %w", o.rank, err)
		}
	}
	log.Info("Persisted %d rank summaries to the resultstore", len(outcomes))
	return nil
}

// int32VectorToBytes encodes a vector of global node ids into a raw
// little-endian byte blob, the form pkg/archive stores it in.
func int32VectorToBytes(ids []int32) []byte {
	buf := make([]byte, 4*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(id))
	}
	return buf
}

// archiveRun compresses and uploads each rank's raw node-id vector and
// non-local id table, since a numbering run's archive is meant for cold
// long-term storage rather than hot read access and a summary's prose
// doesn't reconstruct the vectors a later mesh operation needs.
func archiveRun(ctx context.Context, log interface{ Info(string, ...interface{}) }, runID string, outcomes []*rankOutcome) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config for archive: %w", err)
	}

	store, err := archive.NewStorage(&cfg.Archive)
	if err != nil {
		return fmt.Errorf("failed to open archive storage: %w", err)
	}

	comp := compress.Best()
	defer compress.Close(comp)

	for _, o := range outcomes {
		rankDir := strconv.Itoa(o.rank)

		nodesKey := filepath.Join(runID, rankDir, "nodes.bin")
		if err := uploadCompressed(ctx, store, comp, nodesKey, int32VectorToBytes(o.output.NodeIDVector())); err != nil {
			return fmt.Errorf("failed to archive rank %d node ids: %w", o.rank, err)
		}

		nonlocalKey := filepath.Join(runID, rankDir, "nonlocal.bin")
		if err := uploadCompressed(ctx, store, comp, nonlocalKey, int32VectorToBytes(o.output.NonLocalNodeIDs())); err != nil {
			return fmt.Errorf("failed to archive rank %d non-local ids: %w", o.rank, err)
		}
	}
	log.Info("Archived %d ranks' node-id vectors under %s", len(outcomes), store.GetURL(runID))
	return nil
}

func uploadCompressed(ctx context.Context, store archive.Storage, comp compress.Compressor, key string, raw []byte) error {
	compressed, err := comp.Compress(raw)
	if err != nil {
		return fmt.Errorf("failed to compress %s: %w", key, err)
	}
	return store.Upload(ctx, key, bytes.NewReader(compressed))
}
