package mapping_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/mapping"
	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/schema"
)

func TestGenerate_TimestampAndPassThrough(t *testing.T) {
	t.Parallel()

	fields := []schema.Field{{Name: "timeStamp"}, {Name: "value"}}
	got := mapping.Generate(fields, "timeStamp")

	want := []mapping.Column{
		{ColumnName: "__time", Expression: `MILLIS_TO_TIMESTAMP("timeStamp")`},
		{ColumnName: "value", Expression: `"value"`},
	}
	assert.Equal(t, want, got)
}

func TestGenerate_PreservesOrderAndLength(t *testing.T) {
	t.Parallel()

	fields := []schema.Field{{Name: "c"}, {Name: "a"}, {Name: "ts"}, {Name: "b"}}
	got := mapping.Generate(fields, "ts")

	require.Len(t, got, len(fields))
	names := make([]string, len(got))
	for i, c := range got {
		names[i] = c.ColumnName
	}
	assert.Equal(t, []string{"c", "a", "__time", "b"}, names)
}

func TestGenerate_Idempotent(t *testing.T) {
	t.Parallel()

	fields := []schema.Field{{Name: "timeStamp"}, {Name: "host"}, {Name: "value"}}
	first := mapping.Generate(fields, "timeStamp")
	second := mapping.Generate(fields, "timeStamp")
	assert.Equal(t, first, second)
}

func TestGenerate_NoTimestampField(t *testing.T) {
	t.Parallel()

	got := mapping.Generate([]schema.Field{{Name: "value"}}, "timeStamp")
	assert.Equal(t, []mapping.Column{{ColumnName: "value", Expression: `"value"`}}, got)
}

func TestGenerate_EmptySchema(t *testing.T) {
	t.Parallel()

	got := mapping.Generate(nil, "timeStamp")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestQuoteIdentifier(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"plain"`, mapping.QuoteIdentifier("plain"))
	assert.Equal(t, `"say ""hi"""`, mapping.QuoteIdentifier(`say "hi"`))
}
