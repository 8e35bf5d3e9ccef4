// Package discovery asks the sampling API for an object's input schema and
// derives column mappings from it.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/mapping"
	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/redact"
	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/schema"
	"github.com/shpitdev/polaris-autoingest/pkg/polaris"
)

// Sampler is the subset of the API client used for discovery.
type Sampler interface {
	SampleRaw(ctx context.Context, req polaris.SamplingRequest) (polaris.SamplingResponse, error)
}

type Request struct {
	SourceType     string
	ConnectionName string
	// Object is the reference as given by the operator; only its final path
	// segment is sent for sampling.
	Object         string
	TimestampField string
}

// Result is the outcome of discovering one object. Exactly one of Err or
// Schema/Mappings is meaningful; check OK before using the schema.
type Result struct {
	Object    string
	ShortName string
	Schema    []schema.Field
	Mappings  []mapping.Column
	Err       error
}

func (r Result) OK() bool {
	return r.Err == nil
}

// ShortName returns the final "/"-delimited segment of an object reference.
func ShortName(object string) string {
	if i := strings.LastIndex(object, "/"); i >= 0 {
		return object[i+1:]
	}
	return object
}

// Discover samples one object. Failures never escape as panics or errors: they
// are logged and returned in Result.Err so the caller can skip the object.
func Discover(ctx context.Context, s Sampler, req Request, log *slog.Logger) Result {
	res := Result{
		Object:    req.Object,
		ShortName: ShortName(req.Object),
	}

	resp, err := s.SampleRaw(ctx, polaris.SamplingRequest{
		Source: polaris.SamplingSource{
			Type:           req.SourceType,
			ConnectionName: req.ConnectionName,
			Objects:        []string{res.ShortName},
		},
	})
	if err != nil {
		res.Err = fmt.Errorf("discover input schema: %w", err)
		log.Error("input schema discovery failed", "sample_object", res.ShortName, "err", redact.Secrets(err.Error()))
		return res
	}

	fields, err := schema.ParseFields(resp.Schema)
	if err != nil {
		res.Err = fmt.Errorf("discover input schema: %w", err)
		log.Error("sampling response rejected", "sample_object", res.ShortName, "err", err)
		return res
	}
	if len(fields) == 0 {
		res.Err = fmt.Errorf("discover input schema: input schema is empty")
		log.Error("sampling response rejected", "sample_object", res.ShortName, "err", res.Err)
		return res
	}
	res.Schema = fields
	log.Info("input schema discovered", "fields", len(fields))

	res.Mappings = mapping.Generate(fields, req.TimestampField)
	log.Info("column mappings created", "mappings", len(res.Mappings))
	if !schema.Contains(fields, req.TimestampField) {
		log.Warn("timestamp field not found in input schema", "timestamp_field", req.TimestampField, "fields", schema.Names(fields))
	}
	return res
}
