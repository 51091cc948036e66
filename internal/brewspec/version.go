// Package brewspec implements the BrewSpec interchange format: the version
// registry, the version compatibility gate, and the structural document
// validator for the current format version.
//
// A BrewSpec document is a generic nested map (decoded from YAML or JSON)
// with a brewspec_version tag and a list of brew objects. Validation here
// is purely structural; the record model performs its own field validation
// as a second layer.
package brewspec

import (
	"fmt"
	"strings"
)

// CurrentVersion is the only BrewSpec version this release reads and writes.
const CurrentVersion = "0.4"

// MigrationGuideURL points at the BrewSpec format migration reference.
const MigrationGuideURL = "https://brewspec.org/spec/migration"

// Version describes one historical BrewSpec format version. The registry is
// a small closed set; the entry point selects a version once and no other
// code branches on version tags.
type Version struct {
	Tag     string
	Summary string
}

// Registry lists every BrewSpec version this codebase knows about, oldest
// first.
var Registry = []Version{
	{Tag: "0.1", Summary: "nested dose/weight (coffee.dose_g, water.weight_g), flat rating"},
	{Tag: "0.2", Summary: "flat dose_g and water_weight_g, ratings as a single JSON object"},
	{Tag: "0.3", Summary: "individual rating dimensions, freeform grind text"},
	{Tag: "0.4", Summary: "grind enum, result sub-object with tds/ey/brix/tasting_notes/ratings"},
}

// Known reports whether tag names a version in the registry.
func Known(tag string) bool {
	for _, v := range Registry {
		if v.Tag == tag {
			return true
		}
	}
	return false
}

// VersionMismatchError is returned when a document's version tag is not
// exactly CurrentVersion. Its message wording is a compatibility contract:
// it names the version found, lists the structural changes an upgrade
// requires, and points at the migration reference. Tests pin the wording;
// do not reword without a version bump.
type VersionMismatchError struct {
	Found string
}

func (e *VersionMismatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "unsupported BrewSpec version %q: this release reads BrewSpec %s only.\n", e.Found, CurrentVersion)
	b.WriteString("To upgrade your file to " + CurrentVersion + ":\n")
	b.WriteString("  - move tds to result.tds\n")
	b.WriteString("  - move ey to result.ey\n")
	b.WriteString("  - move rating to result.ratings.overall\n")
	b.WriteString("  - restrict grind to one of: " + strings.Join(grindEnum, ", ") + "\n")
	b.WriteString("See " + MigrationGuideURL + " for the full migration guide.")
	return b.String()
}

// CheckVersion gates a parsed document on its declared version tag before
// schema validation runs. A missing or non-string tag is reported as an
// empty Found version so the remediation message still applies.
func CheckVersion(doc map[string]interface{}) error {
	tag, _ := doc["brewspec_version"].(string)
	if tag == CurrentVersion {
		return nil
	}
	return &VersionMismatchError{Found: tag}
}
