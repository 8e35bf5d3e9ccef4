// Package app drives discovery and ingestion over a list of objects.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shpitdev/polaris-autoingest/internal/discovery"
	"github.com/shpitdev/polaris-autoingest/internal/ingest"
	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/job"
	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/schema"
)

// API is the remote surface a run needs.
type API interface {
	discovery.Sampler
	ingest.Creator
}

// Params are the run-wide values shared by every object.
type Params struct {
	SourceType     string
	ConnectionName string
	Mode           schema.AddressingMode
	FileFormat     string
	TableName      string
	TimestampField string
}

// Outcome records what happened to one object.
type Outcome struct {
	Object    string
	Discovery discovery.Result
	// Ingestion is nil when discovery failed and no job was attempted.
	Ingestion *ingest.Result
}

// Summary aggregates a run.
type Summary struct {
	RunID      string
	Objects    int
	Discovered int
	Submitted  int
	Failed     int
	Outcomes   []Outcome
}

// Run processes objects one at a time: discover, then ingest if discovery
// succeeded. Per-object failures are recorded and the run continues. Only
// context cancellation stops the loop early.
func Run(ctx context.Context, api API, p Params, objects []string, log *slog.Logger) Summary {
	sum := Summary{
		RunID:    uuid.NewString(),
		Outcomes: make([]Outcome, 0, len(objects)),
	}
	log = log.With("run", sum.RunID)
	start := time.Now()
	log.Info("run start",
		"objects", len(objects),
		"source_type", p.SourceType,
		"connection", p.ConnectionName,
		"mode", p.Mode.String(),
		"table", p.TableName,
	)

	for _, object := range objects {
		if err := ctx.Err(); err != nil {
			log.Warn("run interrupted", "remaining", len(objects)-sum.Objects, "err", err)
			break
		}
		sum.Objects++
		objLog := log.With("object", object)
		objLog.Info("processing object")

		out := Outcome{Object: object}
		out.Discovery = discovery.Discover(ctx, api, discovery.Request{
			SourceType:     p.SourceType,
			ConnectionName: p.ConnectionName,
			Object:         object,
			TimestampField: p.TimestampField,
		}, objLog)

		if !out.Discovery.OK() {
			sum.Failed++
			objLog.Warn("skipping ingestion")
			sum.Outcomes = append(sum.Outcomes, out)
			continue
		}
		sum.Discovered++

		res := ingest.Submit(ctx, api, job.Spec{
			SourceType:     p.SourceType,
			ConnectionName: p.ConnectionName,
			Object:         object,
			FileFormat:     p.FileFormat,
			Mode:           p.Mode,
			TableName:      p.TableName,
		}, out.Discovery.Schema, out.Discovery.Mappings, objLog)
		out.Ingestion = &res
		if res.OK() {
			sum.Submitted++
		} else {
			sum.Failed++
		}
		sum.Outcomes = append(sum.Outcomes, out)
	}

	log.Info("run complete",
		"objects", sum.Objects,
		"discovered", sum.Discovered,
		"submitted", sum.Submitted,
		"failed", sum.Failed,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return sum
}
