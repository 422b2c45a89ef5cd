package director

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// WriteDocument writes a script document to a YAML file
func WriteDocument(doc *Document, path string) error {
	if doc.Version == "" {
		doc.Version = Version
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadDocument reads a script document from a YAML file
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ParseDocument decodes a script document. Unknown fields are rejected so
// that misspelt beat fields fail loudly instead of defaulting to zero.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := decodeStrict(data, &doc); err != nil {
		return nil, err
	}
	if doc.Version != "" && doc.Version != Version {
		return nil, fmt.Errorf("unsupported document version %q", doc.Version)
	}
	return &doc, nil
}

func decodeStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty document")
		}
		return err
	}
	return nil
}
