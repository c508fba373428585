// ABOUTME: OSCAL catalog document types and JSON loading.
// ABOUTME: Distinguishes missing input files from malformed JSON for the caller.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrNotFound is returned when a catalog path does not resolve to a readable file.
	ErrNotFound = errors.New("catalog not found")

	// ErrMalformed is returned when a catalog file is not valid JSON.
	ErrMalformed = errors.New("catalog is not valid JSON")
)

// Document is the root of an OSCAL catalog file.
type Document struct {
	Catalog *Catalog `json:"catalog"`
}

// Catalog holds the groups of a control catalog.
type Catalog struct {
	UUID     string   `json:"uuid,omitempty"`
	Metadata Metadata `json:"metadata"`
	Groups   []Group  `json:"groups,omitempty"`
}

// Metadata carries the descriptive header of a catalog.
type Metadata struct {
	Title   string `json:"title,omitempty"`
	Version string `json:"version,omitempty"`
}

// Group is a family of controls; groups may nest.
type Group struct {
	ID       string    `json:"id,omitempty"`
	Class    string    `json:"class,omitempty"`
	Title    string    `json:"title,omitempty"`
	Groups   []Group   `json:"groups,omitempty"`
	Controls []Control `json:"controls,omitempty"`
}

// Control is a single catalog control. Controls nested under Controls are enhancements.
type Control struct {
	ID       string    `json:"id,omitempty"`
	Class    string    `json:"class,omitempty"`
	Title    string    `json:"title,omitempty"`
	Prose    string    `json:"prose,omitempty"`
	Parts    []Part    `json:"parts,omitempty"`
	Controls []Control `json:"controls,omitempty"`
}

// Part is a prose-bearing section of a control; parts may nest.
type Part struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Prose string `json:"prose,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

// Title returns the catalog title, or an empty string for a document without a catalog.
func (d *Document) Title() string {
	if d == nil || d.Catalog == nil {
		return ""
	}
	return d.Catalog.Metadata.Title
}

// Load reads and decodes the catalog at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}
	defer func() { _ = f.Close() }()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode reads one catalog document from r.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, describeJSONError(data, err))
	}
	return &doc, nil
}

// describeJSONError adds a line and column to decoder diagnostics when the offset is known.
func describeJSONError(data []byte, err error) string {
	var offset int64 = -1
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	}
	if offset < 0 || offset > int64(len(data)) {
		return err.Error()
	}

	line, col := 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return fmt.Sprintf("%v (line %d, column %d)", err, line, col)
}
