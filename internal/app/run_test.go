package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shpitdev/polaris-autoingest/internal/app"
	"github.com/shpitdev/polaris-autoingest/internal/mockpolaris"
	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/schema"
	"github.com/shpitdev/polaris-autoingest/pkg/polaris"
)

const metricSchema = `[{"name":"timeStamp","dataType":"long"},{"name":"value","dataType":"double"}]`

func newMock(t *testing.T) (*mockpolaris.Server, *polaris.Client) {
	t.Helper()

	srv := mockpolaris.New("", "")
	srv.RequireBasicCredential("dummy-key")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client, err := polaris.NewClient(polaris.Endpoint{Project: "p1", BaseURL: ts.URL}, "dummy-key", polaris.Options{})
	require.NoError(t, err)
	return srv, client
}

func params(mode schema.AddressingMode) app.Params {
	return app.Params{
		SourceType:     "azure",
		ConnectionName: "kh-azure-connection",
		Mode:           mode,
		FileFormat:     "nd-json",
		TableName:      "metric-data",
		TimestampField: "timeStamp",
	}
}

func TestRun_EndToEndAgainstMock(t *testing.T) {
	t.Parallel()

	srv, client := newMock(t)
	srv.SetSchema("metric-data-sample.json", json.RawMessage(metricSchema))

	var logs bytes.Buffer
	sum := app.Run(context.Background(), client, params(schema.AddressingURIs),
		[]string{"azureStorage://honeywell1/test/test1/metric-data-sample.json"},
		slog.New(slog.NewTextHandler(&logs, nil)))

	assert.Equal(t, 1, sum.Objects)
	assert.Equal(t, 1, sum.Discovered)
	assert.Equal(t, 1, sum.Submitted)
	assert.Equal(t, 0, sum.Failed)
	assert.NotEmpty(t, sum.RunID)

	jobs := srv.Jobs()
	require.Len(t, jobs, 1)
	assert.JSONEq(t, `{
		"type": "batch",
		"target": {"type": "table", "tableName": "metric-data"},
		"createTableIfNotExists": true,
		"source": {
			"type": "azure",
			"connectionName": "kh-azure-connection",
			"uris": ["azureStorage://honeywell1/test/test1/metric-data-sample.json"],
			"formatSettings": {"format": "nd-json"},
			"inputSchema": `+metricSchema+`
		},
		"mappings": [
			{"columnName": "__time", "expression": "MILLIS_TO_TIMESTAMP(\"timeStamp\")"},
			{"columnName": "value", "expression": "\"value\""}
		]
	}`, string(jobs[0].Payload))
	assert.Contains(t, logs.String(), "run complete")
}

func TestRun_DiscoveryFailureSkipsIngestionAndContinues(t *testing.T) {
	t.Parallel()

	srv, client := newMock(t)
	srv.SetSchema("one.json", json.RawMessage(metricSchema))
	srv.FailSampling("two.json", http.StatusInternalServerError)
	srv.SetSchema("three.json", json.RawMessage(metricSchema))

	objects := []string{"one.json", "dir/two.json", "three.json"}
	sum := app.Run(context.Background(), client, params(schema.AddressingObjects), objects,
		slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	assert.Equal(t, 3, sum.Objects)
	assert.Equal(t, 2, sum.Discovered)
	assert.Equal(t, 2, sum.Submitted)
	assert.Equal(t, 1, sum.Failed)

	assert.Len(t, srv.SamplingCalls(), len(objects))

	jobs := srv.Jobs()
	require.Len(t, jobs, 2)
	var sent []string
	for _, j := range jobs {
		var p struct {
			Source struct {
				Objects []string `json:"objects"`
			} `json:"source"`
		}
		require.NoError(t, json.Unmarshal(j.Payload, &p))
		sent = append(sent, p.Source.Objects...)
	}
	assert.Equal(t, []string{"one.json", "three.json"}, sent)

	require.Len(t, sum.Outcomes, 3)
	assert.Nil(t, sum.Outcomes[1].Ingestion)
	assert.False(t, sum.Outcomes[1].Discovery.OK())
}

func TestRun_IngestionFailureDoesNotAbort(t *testing.T) {
	t.Parallel()

	srv, client := newMock(t)
	srv.SetSchema("a.json", json.RawMessage(metricSchema))
	srv.SetSchema("b.json", json.RawMessage(metricSchema))
	srv.FailJobs(http.StatusBadRequest)

	sum := app.Run(context.Background(), client, params(schema.AddressingObjects), []string{"a.json", "b.json"},
		slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	assert.Equal(t, 2, sum.Objects)
	assert.Equal(t, 2, sum.Discovered)
	assert.Equal(t, 0, sum.Submitted)
	assert.Equal(t, 2, sum.Failed)
	for _, o := range sum.Outcomes {
		require.NotNil(t, o.Ingestion)
		assert.False(t, o.Ingestion.OK())
	}
}

func TestRun_WrongCredentialFailsEveryObject(t *testing.T) {
	t.Parallel()

	srv := mockpolaris.New("", "")
	srv.RequireBasicCredential("right")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client, err := polaris.NewClient(polaris.Endpoint{Project: "p1", BaseURL: ts.URL}, "", polaris.Options{})
	require.NoError(t, err)

	sum := app.Run(context.Background(), client, params(schema.AddressingObjects), []string{"a.json", "b.json"},
		slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	assert.Equal(t, 2, sum.Objects)
	assert.Equal(t, 2, sum.Failed)
	assert.Empty(t, srv.Jobs())
}

func TestRun_StopsWhenContextCancelled(t *testing.T) {
	t.Parallel()

	srv, client := newMock(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum := app.Run(ctx, client, params(schema.AddressingObjects), []string{"a.json", "b.json"},
		slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	assert.Equal(t, 0, sum.Objects)
	assert.Empty(t, srv.Calls())
}

func TestRun_EmptySchemaSkipsIngestion(t *testing.T) {
	t.Parallel()

	srv, client := newMock(t)
	srv.SetSchema("empty.json", json.RawMessage(`[]`))
	srv.SetSchema("full.json", json.RawMessage(metricSchema))

	sum := app.Run(context.Background(), client, params(schema.AddressingObjects), []string{"empty.json", "full.json"},
		slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	assert.Equal(t, 2, sum.Objects)
	assert.Equal(t, 1, sum.Discovered)
	assert.Equal(t, 1, sum.Submitted)
	assert.Equal(t, 1, sum.Failed)

	require.Len(t, srv.Jobs(), 1)
	assert.NotContains(t, string(srv.Jobs()[0].Payload), `"empty.json"`)

	require.Len(t, sum.Outcomes, 2)
	assert.False(t, sum.Outcomes[0].Discovery.OK())
	assert.Nil(t, sum.Outcomes[0].Ingestion)
}
