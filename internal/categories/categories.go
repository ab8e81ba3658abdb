// Package categories serves the categories document exposed as the
// expense://categories resource.
package categories

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

const (
	URI      = "expense://categories"
	MIMEType = "application/json"
)

// Default is served when no categories file exists.
const Default = `{"categories": ["Food", "Transport", "Rent", "Other"]}`

// Source reads the categories document from a file on every call, so edits
// to the file show up without a restart.
type Source struct {
	path string
}

func NewSource(path string) *Source {
	return &Source{path: path}
}

// Read returns the file contents verbatim. The contents are not validated.
// A missing file yields Default; any other read error is returned.
func (s *Source) Read() (string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default, nil
		}
		return "", fmt.Errorf("read categories %s: %w", s.path, err)
	}
	return string(b), nil
}
