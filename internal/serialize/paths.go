package serialize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brewspec/brewlog/internal/brewspec"
)

// MaxImportBytes caps the size of an import file, checked before any
// parsing.
const MaxImportBytes = 10 * 1024 * 1024

// OutputFormat is an export encoding. CSV is write-only: it can never be
// imported back.
type OutputFormat string

const (
	OutputYAML OutputFormat = "yaml"
	OutputJSON OutputFormat = "json"
	OutputCSV  OutputFormat = "csv"
)

// extensions allowed per output format. A .csv extension alone is not
// enough to select CSV; the caller must request the format explicitly.
var outputExtensions = map[OutputFormat][]string{
	OutputYAML: {".yaml", ".yml"},
	OutputJSON: {".json"},
	OutputCSV:  {".csv"},
}

// ValidateExportPath checks a destination path before any database access:
// no parent-directory traversal components, an extension recognized for the
// requested format, and an existing parent directory.
func ValidateExportPath(path string, format OutputFormat) error {
	if hasDotDot(path) {
		return fmt.Errorf("path must not contain '..' components")
	}

	allowed, ok := outputExtensions[format]
	if !ok {
		return fmt.Errorf("unsupported output format %q", format)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !containsStr(allowed, ext) {
		return fmt.Errorf("output path must end with %s for format %s",
			strings.Join(allowed, " or "), format)
	}

	parent := filepath.Dir(path)
	info, err := os.Stat(parent)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("directory %q does not exist", parent)
	}
	return nil
}

// ValidateImportPath checks a source path before any content is read: no
// traversal components, the file exists and is non-empty, it does not
// exceed MaxImportBytes, and its extension names a parseable format.
func ValidateImportPath(path string) (brewspec.Format, error) {
	if hasDotDot(path) {
		return "", fmt.Errorf("path must not contain '..' components")
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("file %q does not exist", path)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("file %q is empty", path)
	}
	if info.Size() > MaxImportBytes {
		return "", fmt.Errorf("file exceeds 10MB limit (%d bytes), refusing to parse", info.Size())
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return brewspec.FormatYAML, nil
	case ".json":
		return brewspec.FormatJSON, nil
	default:
		return "", fmt.Errorf("unrecognised file extension %q, supported formats: .yaml, .yml, .json",
			filepath.Ext(path))
	}
}

func hasDotDot(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}

func containsStr(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
