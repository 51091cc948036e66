package serialize

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brewspec/brewlog/internal/brewspec"
)

func TestValidateExportPath(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		path   string
		format OutputFormat
		ok     bool
	}{
		{"yaml extension", filepath.Join(dir, "out.yaml"), OutputYAML, true},
		{"yml extension", filepath.Join(dir, "out.yml"), OutputYAML, true},
		{"json extension", filepath.Join(dir, "out.json"), OutputJSON, true},
		{"csv extension with csv format", filepath.Join(dir, "out.csv"), OutputCSV, true},
		{"yaml extension with json format", filepath.Join(dir, "out.yaml"), OutputJSON, false},
		{"csv extension with yaml format", filepath.Join(dir, "out.csv"), OutputYAML, false},
		{"no extension", filepath.Join(dir, "out"), OutputYAML, false},
		{"traversal component", "../out.yaml", OutputYAML, false},
		{"missing parent", filepath.Join(dir, "nope", "out.yaml"), OutputYAML, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExportPath(tt.path, tt.format)
			if tt.ok && err != nil {
				t.Errorf("path rejected: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("path accepted, want rejection")
			}
		})
	}
}

func TestValidateImportPath(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}
		return path
	}

	yamlPath := write("in.yaml", "brewspec_version: \"0.4\"\n")
	format, err := ValidateImportPath(yamlPath)
	if err != nil {
		t.Fatalf("yaml path rejected: %v", err)
	}
	if format != brewspec.FormatYAML {
		t.Errorf("got format %s, want yaml", format)
	}

	jsonPath := write("in.json", "{}")
	format, err = ValidateImportPath(jsonPath)
	if err != nil {
		t.Fatalf("json path rejected: %v", err)
	}
	if format != brewspec.FormatJSON {
		t.Errorf("got format %s, want json", format)
	}

	if _, err := ValidateImportPath(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}

	emptyPath := write("empty.yaml", "")
	if _, err := ValidateImportPath(emptyPath); err == nil {
		t.Error("empty file accepted")
	}

	csvPath := write("in.csv", "a,b\n")
	if _, err := ValidateImportPath(csvPath); err == nil {
		t.Error("csv import accepted; CSV is write-only")
	}

	if _, err := ValidateImportPath("../in.yaml"); err == nil {
		t.Error("traversal path accepted")
	}
}

func TestValidateImportPath_SizeCap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.yaml")

	big := strings.Repeat("x", MaxImportBytes+1)
	if err := os.WriteFile(path, []byte(big), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	_, err := ValidateImportPath(path)
	if err == nil {
		t.Fatal("oversized file accepted")
	}
	if !strings.Contains(err.Error(), "10MB") {
		t.Errorf("error does not mention the cap: %v", err)
	}
}
