// Command pipeline-run drives one pipeline invocation to completion: it
// loads a JSON pipeline configuration, builds and validates the
// execution graph, binds the configured plugins, and runs (or resumes)
// the orchestrator against an audit database and payload store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/R3E-Network/service_layer/internal/runtime"
	"github.com/R3E-Network/service_layer/pkg/pipeline/domain"
	"github.com/R3E-Network/service_layer/pkg/pipeline/retention"
)

func main() {
	configPath := flag.String("config", "", "path to the pipeline JSON configuration file")
	auditDSN := flag.String("audit-db", "", "audit database URL (postgres://...); empty uses an in-memory recorder")
	payloadDir := flag.String("payload-dir", "", "directory backing the content-addressed payload store")
	resumeRunID := flag.String("resume", "", "resume a previously interrupted run by id instead of starting a new one")
	maxWorkers := flag.Int("max-workers", 4, "maximum number of source rows processed concurrently")
	checkpointEvery := flag.Int("checkpoint-every", 100, "checkpoint aggregation state every N processed rows (0 disables)")
	allowDivertDrift := flag.Bool("allow-divert-only-topology-drift", false, "permit resume when the only topology delta since checkpoint is an added DIVERT edge")
	runPurge := flag.Bool("purge-expired", false, "run a retention purge sweep over expired runs instead of driving a pipeline run")
	flag.Parse()

	if *configPath == "" || *payloadDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	retentionDays := envInt("RETENTION_DAYS", 90)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	// Avoid defers in CLI entrypoints that may call os.Exit; the signal
	// context and engine shutdown are released explicitly before exit.

	cfg, err := runtime.LoadPipelineConfig(*configPath)
	if err != nil {
		stop()
		log.Fatalf("load pipeline config: %v", err)
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = retentionDays
	}

	pipeline, err := runtime.Build(ctx, cfg, runtime.BuildOptions{
		AuditDSN:                     *auditDSN,
		PayloadDir:                   *payloadDir,
		MaxWorkers:                   *maxWorkers,
		CheckpointEvery:              *checkpointEvery,
		AllowDivertOnlyTopologyDrift: *allowDivertDrift,
	})
	if err != nil {
		stop()
		log.Fatalf("build pipeline: %v", err)
	}

	if *runPurge {
		code := purgeExpiredRuns(ctx, pipeline, retentionDays)
		stop()
		_ = pipeline.Close()
		os.Exit(code)
	}

	go func() {
		<-ctx.Done()
		pipeline.Log.Warn("shutdown signal received, draining in-flight rows")
		pipeline.Engine.RequestShutdown()
	}()

	var run domain.Run
	if *resumeRunID != "" {
		configHash, hashErr := runtime.ConfigHash(cfg)
		if hashErr != nil {
			stop()
			log.Fatalf("hash pipeline config: %v", hashErr)
		}
		run, err = pipeline.Engine.Resume(ctx, *resumeRunID, configHash)
	} else {
		configHash, hashErr := runtime.ConfigHash(cfg)
		if hashErr != nil {
			stop()
			log.Fatalf("hash pipeline config: %v", hashErr)
		}
		schemaBytes, schemaErr := runtime.AuditSchemaBytes(domain.Observed())
		if schemaErr != nil {
			stop()
			log.Fatalf("encode schema contract: %v", schemaErr)
		}
		run, err = pipeline.Engine.Run(ctx, configHash, schemaBytes)
	}

	code := exitCodeFor(run, err)
	if err != nil {
		pipeline.Log.WithField("run_id", run.RunID).Errorf("run did not complete cleanly: %v", err)
	} else {
		pipeline.Log.WithField("run_id", run.RunID).WithField("status", string(run.Status)).Info("run finished")
	}

	stop()
	if closeErr := pipeline.Close(); closeErr != nil {
		pipeline.Log.Warnf("close pipeline resources: %v", closeErr)
	}
	os.Exit(code)
}

// exitCodeFor maps a finished run's terminal status to the exit codes
// spec.md §6 defines: 0 success, 1 PARTIAL (completed but export failed),
// 2 FAILED, 130 graceful-shutdown INTERRUPTED.
func exitCodeFor(run domain.Run, err error) int {
	switch run.Status {
	case domain.RunInterrupted:
		return 130
	case domain.RunFailed:
		return 2
	case domain.RunCompleted:
		if run.ExportStatus == domain.ExportFailed {
			return 1
		}
		return 0
	default:
		if err != nil {
			return 2
		}
		return 0
	}
}

// purgeExpiredRuns sweeps every terminal run for retention-expired
// payloads. It is a best-effort, ungraceful-interrupt-unaware pass
// (purges are individually idempotent, so a killed sweep simply resumes
// on the next invocation by re-discovering still-expired refs).
func purgeExpiredRuns(ctx context.Context, p *runtime.Pipeline, retentionDays int) int {
	mgr := retention.New(p.Recorder, p.Payloads)
	asOf := time.Now()

	runs, err := p.Recorder.ListTerminalRuns(ctx)
	if err != nil {
		p.Log.Errorf("list terminal runs: %v", err)
		return 2
	}

	exitCode := 0
	for _, run := range runs {
		refs, err := mgr.FindExpiredPayloadRefs(ctx, run, retentionDays, asOf)
		if err != nil {
			p.Log.WithField("run_id", run.RunID).Errorf("find expired payload refs: %v", err)
			exitCode = 2
			continue
		}
		if len(refs) == 0 {
			continue
		}
		result, err := mgr.PurgePayloads(ctx, run.RunID, refs)
		if err != nil {
			p.Log.WithField("run_id", run.RunID).Errorf("purge payloads: %v", err)
			exitCode = 2
			continue
		}
		if err := mgr.UpdateGradeAfterPurge(ctx, run.RunID, result); err != nil {
			p.Log.WithField("run_id", run.RunID).Errorf("update reproducibility grade: %v", err)
			exitCode = 2
			continue
		}
		p.Log.WithField("run_id", run.RunID).WithField("deleted", result.DeletedCount).Info("retention purge complete")
	}
	return exitCode
}

func envInt(name string, def int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeline-run: invalid %s=%q, using default %d\n", name, raw, def)
		return def
	}
	return v
}
