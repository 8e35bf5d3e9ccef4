package local

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ObjectColumn is the CSV header naming the object reference column.
const ObjectColumn = "object"

// ReadObjectsFile loads object references from path. The format follows the
// extension: .yaml/.yml is a YAML list (or a mapping with an "objects" list),
// .csv needs an "object" column, anything else holds one reference per line.
func ReadObjectsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	var objects []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		objects, err = ReadObjectsYAML(f)
	case ".csv":
		objects, err = ReadObjectsCSV(f)
	default:
		objects, err = ReadObjectsText(f)
	}
	if err != nil {
		return nil, fmt.Errorf("read objects file %s: %w", path, err)
	}
	return objects, nil
}

// ReadObjectsYAML accepts either a top-level sequence or {objects: [...]}.
func ReadObjectsYAML(r io.Reader) ([]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(b, &node); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	var list []string
	doc := node.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&list); err != nil {
			return nil, fmt.Errorf("parse yaml list: %w", err)
		}
	case yaml.MappingNode:
		var wrapped struct {
			Objects []string `yaml:"objects"`
		}
		if err := doc.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("parse yaml objects: %w", err)
		}
		list = wrapped.Objects
	default:
		return nil, fmt.Errorf("yaml must be a list or a mapping with an %q key", "objects")
	}
	return compact(list), nil
}

// ReadObjectsCSV reads a CSV file and returns the values from the "object" column.
func ReadObjectsCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := -1
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), ObjectColumn) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("missing required column %q", ObjectColumn)
	}

	var objects []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if idx >= len(rec) {
			return nil, fmt.Errorf("row has %d columns, want at least %d", len(rec), idx+1)
		}
		objects = append(objects, rec[idx])
	}
	return compact(objects), nil
}

// ReadObjectsText reads one reference per line; blank lines and lines starting
// with "#" are skipped.
func ReadObjectsText(r io.Reader) ([]string, error) {
	var objects []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		objects = append(objects, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return objects, nil
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
