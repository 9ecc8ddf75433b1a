package treeio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/panelstate/pkg/domain"
)

// Format names a document encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" and "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// FormatOf guesses the format of a file from its extension, defaulting to YAML
// which also reads JSON.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSON
	}
	return YAML
}

// Parse decodes data. Documents starting with '{' or '[' are read as JSON,
// everything else as YAML.
func Parse(data []byte) (*domain.Tree, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return domain.ParseJSON(trimmed)
	}
	return ParseYAML(data)
}

// ReadFile parses the document at path; "-" reads stdin.
func ReadFile(path string) (*domain.Tree, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}

// Encode writes t to w in format f. JSON output is indented.
func Encode(w io.Writer, t *domain.Tree, f Format) error {
	var (
		data []byte
		err  error
	)
	switch f {
	case YAML:
		data, err = EncodeYAML(t)
	default:
		data, err = json.MarshalIndent(t, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
