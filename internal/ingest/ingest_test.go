package ingest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shpitdev/polaris-autoingest/internal/ingest"
	"github.com/shpitdev/polaris-autoingest/internal/mockpolaris"
	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/job"
	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/mapping"
	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/schema"
	"github.com/shpitdev/polaris-autoingest/pkg/polaris"
)

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}

func TestSubmit_PostsFullReferenceAndLogsResponse(t *testing.T) {
	t.Parallel()

	srv := mockpolaris.New("", "")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client, err := polaris.NewClient(polaris.Endpoint{Project: "p1", BaseURL: ts.URL}, "k", polaris.Options{})
	require.NoError(t, err)

	fields := []schema.Field{{Name: "timeStamp"}, {Name: "value"}}
	var logs bytes.Buffer
	res := ingest.Submit(context.Background(), client, job.Spec{
		SourceType:     "azure",
		ConnectionName: "conn",
		Object:         "azureStorage://bucket/dir/file.json",
		FileFormat:     "nd-json",
		Mode:           schema.AddressingURIs,
		TableName:      "metric-data",
	}, fields, mapping.Generate(fields, "timeStamp"), testLogger(&logs))

	require.True(t, res.OK(), "unexpected error: %v", res.Err)
	assert.Equal(t, "job-0001", res.JobID)
	assert.Equal(t, "pending", res.ExecutionStatus)
	assert.Contains(t, logs.String(), "ingestion job accepted")
	assert.Contains(t, logs.String(), "job-0001")

	jobs := srv.Jobs()
	require.Len(t, jobs, 1)
	var sent struct {
		Source struct {
			URIs []string `json:"uris"`
		} `json:"source"`
		CreateTableIfNotExists bool `json:"createTableIfNotExists"`
	}
	require.NoError(t, json.Unmarshal(jobs[0].Payload, &sent))
	assert.Equal(t, []string{"azureStorage://bucket/dir/file.json"}, sent.Source.URIs)
	assert.True(t, sent.CreateTableIfNotExists)
}

func TestSubmit_RejectedJobIsSoftFailure(t *testing.T) {
	t.Parallel()

	srv := mockpolaris.New("", "")
	srv.FailJobs(http.StatusConflict)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client, err := polaris.NewClient(polaris.Endpoint{Project: "p1", BaseURL: ts.URL}, "k", polaris.Options{})
	require.NoError(t, err)

	var logs bytes.Buffer
	res := ingest.Submit(context.Background(), client, job.Spec{Object: "a.json", Mode: schema.AddressingObjects}, nil, nil, testLogger(&logs))

	require.False(t, res.OK())
	var httpErr *polaris.HTTPError
	require.True(t, errors.As(res.Err, &httpErr))
	assert.Equal(t, http.StatusConflict, httpErr.StatusCode)
	assert.Contains(t, logs.String(), "data ingestion failed")
	assert.Empty(t, srv.Jobs())
}

type stubCreator struct {
	payload any
}

func (s *stubCreator) CreateJob(_ context.Context, payload any) (json.RawMessage, error) {
	s.payload = payload
	return json.RawMessage(`["unexpected","shape"]`), nil
}

func TestSubmit_UnrecognisedResponseShapeStillSucceeds(t *testing.T) {
	t.Parallel()

	c := &stubCreator{}
	var logs bytes.Buffer
	res := ingest.Submit(context.Background(), c, job.Spec{Object: "a.json", Mode: schema.AddressingObjects, TableName: "t"}, nil, nil, testLogger(&logs))

	require.True(t, res.OK())
	assert.Empty(t, res.JobID)
	p, ok := c.payload.(job.Payload)
	require.True(t, ok)
	assert.Equal(t, []string{"a.json"}, p.Source.Objects)
	assert.Equal(t, "t", p.Target.TableName)
}
