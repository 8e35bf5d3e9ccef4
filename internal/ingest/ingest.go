// Package ingest submits batch ingestion jobs for discovered objects.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/job"
	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/mapping"
	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/redact"
	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/schema"
)

// Creator is the subset of the API client used to submit jobs.
type Creator interface {
	CreateJob(ctx context.Context, payload any) (json.RawMessage, error)
}

type Result struct {
	Object string
	// JobID and ExecutionStatus are read from the response when present.
	JobID           string
	ExecutionStatus string
	Response        json.RawMessage
	Err             error
}

func (r Result) OK() bool {
	return r.Err == nil
}

type jobSummary struct {
	ID              string `json:"id"`
	ExecutionStatus string `json:"executionStatus"`
}

// Submit builds the job payload for one object and posts it. A failed
// submission is logged and returned in Result.Err.
func Submit(ctx context.Context, c Creator, spec job.Spec, fields []schema.Field, columns []mapping.Column, log *slog.Logger) Result {
	res := Result{Object: spec.Object}
	log.Info("submitting ingestion job", "table", spec.TableName, "mode", spec.Mode.String())

	payload := job.Build(spec, fields, columns)
	resp, err := c.CreateJob(ctx, payload)
	if err != nil {
		res.Err = fmt.Errorf("submit ingestion job: %w", err)
		log.Error("data ingestion failed", "err", redact.Secrets(err.Error()))
		return res
	}
	res.Response = resp

	var sum jobSummary
	if json.Unmarshal(resp, &sum) == nil {
		res.JobID = sum.ID
		res.ExecutionStatus = sum.ExecutionStatus
	}
	log.Info("ingestion job accepted", "job_id", res.JobID, "status", res.ExecutionStatus, "response", string(resp))
	return res
}
