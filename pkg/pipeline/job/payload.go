// Package job assembles batch ingestion job definitions.
package job

import (
	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/mapping"
	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/schema"
)

const (
	TypeBatch  = "batch"
	TargetType = "table"
)

// Spec holds the per-run parameters of an ingestion job for one object.
type Spec struct {
	SourceType     string
	ConnectionName string
	// Object is sent exactly as given, without the short-name normalization
	// applied for sampling.
	Object     string
	FileFormat string
	Mode       schema.AddressingMode
	TableName  string
}

type Payload struct {
	Type                   string           `json:"type"`
	Target                 Target           `json:"target"`
	CreateTableIfNotExists bool             `json:"createTableIfNotExists"`
	Source                 Source           `json:"source"`
	Mappings               []mapping.Column `json:"mappings"`
}

type Target struct {
	Type      string `json:"type"`
	TableName string `json:"tableName"`
}

// Source names the object under either "uris" or "objects"; exactly one is set.
type Source struct {
	Type           string         `json:"type"`
	ConnectionName string         `json:"connectionName"`
	URIs           []string       `json:"uris,omitempty"`
	Objects        []string       `json:"objects,omitempty"`
	FormatSettings FormatSettings `json:"formatSettings"`
	InputSchema    []schema.Field `json:"inputSchema"`
}

type FormatSettings struct {
	Format string `json:"format"`
}

// Build assembles the job payload. It performs no validation.
func Build(spec Spec, fields []schema.Field, columns []mapping.Column) Payload {
	src := Source{
		Type:           spec.SourceType,
		ConnectionName: spec.ConnectionName,
		FormatSettings: FormatSettings{Format: spec.FileFormat},
		InputSchema:    fields,
	}
	if spec.Mode == schema.AddressingURIs {
		src.URIs = []string{spec.Object}
	} else {
		src.Objects = []string{spec.Object}
	}
	if src.InputSchema == nil {
		src.InputSchema = []schema.Field{}
	}
	if columns == nil {
		columns = []mapping.Column{}
	}

	return Payload{
		Type: TypeBatch,
		Target: Target{
			Type:      TargetType,
			TableName: spec.TableName,
		},
		CreateTableIfNotExists: true,
		Source:                 src,
		Mappings:               columns,
	}
}
