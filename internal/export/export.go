// Package export writes scene documents to disk.
package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ivlev/aecomp/internal/scene"
)

// Writer serializes a scene document to a file.
type Writer interface {
	Write(doc *scene.Document, path string) error
	// Ext is the file extension, with the dot.
	Ext() string
}

// Formats lists the names accepted by New.
var Formats = []string{"yaml", "gltf", "glb"}

// New returns the writer for format.
func New(format string) (Writer, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml", "":
		return YAMLWriter{}, nil
	case "gltf":
		return GLTFWriter{}, nil
	case "glb":
		return GLTFWriter{Binary: true}, nil
	default:
		return nil, fmt.Errorf("unknown export format: %s", format)
	}
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (string, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml", true
	case ".gltf":
		return "gltf", true
	case ".glb":
		return "glb", true
	}
	return "", false
}
