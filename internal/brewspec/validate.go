package brewspec

import (
	"fmt"
	"sort"
	"strings"
)

// Declarative key sets for the current version. Every object level is
// closed: keys outside these sets are violations.
var (
	documentKeys = keySet("brewspec_version", "brews")
	brewKeys     = keySet(
		"date", "type", "dose_g", "water_weight_g",
		"method", "water_volume_ml", "water_temp_c", "grind", "duration_s", "notes",
		"coffee", "water", "equipment", "result",
	)
	coffeeKeys    = keySet("roast_date", "type", "origin", "varietal", "process")
	waterKeys     = keySet("ppm")
	equipmentKeys = keySet("grinder", "brewer")
	resultKeys    = keySet("tds", "ey", "brix", "tasting_notes", "ratings")
	ratingsKeys   = keySet(
		"overall", "fragrance", "aroma", "flavour",
		"aftertaste", "acidity", "sweetness", "mouthfeel",
	)

	brewTypeEnum   = []string{"espresso", "hybrid", "immersion", "pour_over"}
	coffeeTypeEnum = []string{"blend", "single_origin"}
	grindEnum      = []string{
		"turkish", "espresso", "fine", "medium_fine",
		"medium", "medium_coarse", "coarse",
	}
)

const (
	maxShortText = 100
	maxNotes     = 2000
)

// violation is one structural rule failure at a document path.
type violation struct {
	path string
	msg  string
}

type checker struct {
	violations []violation
}

func (c *checker) add(path, format string, args ...interface{}) {
	c.violations = append(c.violations, violation{path: path, msg: fmt.Sprintf(format, args...)})
}

// Validate checks a parsed document against the current BrewSpec version's
// structural rules: required keys, types, enumerations, numeric bounds,
// string length bounds, and closed objects at every level.
//
// It returns one human-readable message per violation, ordered by the
// structural path of the violation so output is stable across runs. An
// empty slice means the document is valid. Validate never panics and has
// no side effects.
func Validate(doc map[string]interface{}) []string {
	c := &checker{}

	c.closedKeys("", doc, documentKeys)

	tag, ok := doc["brewspec_version"]
	if !ok {
		c.add("brewspec_version", "missing required key")
	} else if s, isStr := tag.(string); !isStr || s != CurrentVersion {
		c.add("brewspec_version", "must be %q", CurrentVersion)
	}

	brewsRaw, ok := doc["brews"]
	if !ok {
		c.add("brews", "missing required key")
	} else if brews, isList := brewsRaw.([]interface{}); !isList {
		c.add("brews", "must be an array")
	} else if len(brews) == 0 {
		c.add("brews", "must have at least one entry")
	} else {
		for i, raw := range brews {
			path := fmt.Sprintf("brews[%d]", i)
			brew, isMap := raw.(map[string]interface{})
			if !isMap {
				c.add(path, "must be an object")
				continue
			}
			c.checkBrew(path, brew)
		}
	}

	sort.SliceStable(c.violations, func(i, j int) bool {
		if c.violations[i].path != c.violations[j].path {
			return c.violations[i].path < c.violations[j].path
		}
		return c.violations[i].msg < c.violations[j].msg
	})

	msgs := make([]string, 0, len(c.violations))
	for _, v := range c.violations {
		msgs = append(msgs, v.path+": "+v.msg)
	}
	return msgs
}

func (c *checker) checkBrew(path string, brew map[string]interface{}) {
	c.closedKeys(path, brew, brewKeys)

	c.requiredString(path, brew, "date", func(p, s string) {
		if !dateTimeRe.MatchString(s) && !dateOnlyRe.MatchString(s) {
			c.add(p, "must be ISO 8601 UTC format: YYYY-MM-DDTHH:MM:SSZ or YYYY-MM-DD")
		}
	})
	c.requiredString(path, brew, "type", func(p, s string) {
		c.enum(p, s, brewTypeEnum)
	})
	c.requiredNumber(path, brew, "dose_g", func(p string, n float64) {
		if n <= 0 {
			c.add(p, "must be greater than 0")
		}
	})
	c.requiredNumber(path, brew, "water_weight_g", func(p string, n float64) {
		if n <= 0 {
			c.add(p, "must be greater than 0")
		}
	})

	c.optionalShortText(path, brew, "method")
	c.optionalNumber(path, brew, "water_volume_ml", func(p string, n float64) {
		if n <= 0 {
			c.add(p, "must be greater than 0")
		}
	})
	c.optionalNumber(path, brew, "water_temp_c", func(p string, n float64) {
		if n < 0 || n > 100 {
			c.add(p, "must be between 0 and 100 inclusive")
		}
	})
	c.optionalString(path, brew, "grind", func(p, s string) {
		c.enum(p, s, grindEnum)
	})
	c.optionalInteger(path, brew, "duration_s", func(p string, n int) {
		if n <= 0 {
			c.add(p, "must be greater than 0")
		}
	})
	c.optionalString(path, brew, "notes", func(p, s string) {
		c.boundedText(p, s, maxNotes)
	})

	if raw, ok := brew["coffee"]; ok {
		c.checkCoffee(path+".coffee", raw)
	}
	if raw, ok := brew["water"]; ok {
		c.checkWater(path+".water", raw)
	}
	if raw, ok := brew["equipment"]; ok {
		c.checkEquipment(path+".equipment", raw)
	}
	if raw, ok := brew["result"]; ok {
		c.checkResult(path+".result", raw)
	}
}

func (c *checker) checkCoffee(path string, raw interface{}) {
	coffee, ok := raw.(map[string]interface{})
	if !ok {
		c.add(path, "must be an object")
		return
	}
	c.closedKeys(path, coffee, coffeeKeys)

	c.optionalString(path, coffee, "roast_date", func(p, s string) {
		if !dateOnlyRe.MatchString(s) {
			c.add(p, "must match YYYY-MM-DD")
		}
	})
	c.optionalString(path, coffee, "type", func(p, s string) {
		c.enum(p, s, coffeeTypeEnum)
	})
	if raw, ok := coffee["origin"]; ok {
		p := path + ".origin"
		origin, isList := raw.([]interface{})
		if !isList {
			c.add(p, "must be an array")
		} else if len(origin) == 0 {
			c.add(p, "must have at least one entry")
		} else {
			for i, entry := range origin {
				ep := fmt.Sprintf("%s[%d]", p, i)
				s, isStr := entry.(string)
				if !isStr {
					c.add(ep, "must be a string")
					continue
				}
				c.boundedText(ep, s, maxShortText)
			}
		}
	}
	c.optionalShortText(path, coffee, "varietal")
	c.optionalShortText(path, coffee, "process")
}

func (c *checker) checkWater(path string, raw interface{}) {
	water, ok := raw.(map[string]interface{})
	if !ok {
		c.add(path, "must be an object")
		return
	}
	c.closedKeys(path, water, waterKeys)
	c.optionalNumber(path, water, "ppm", func(p string, n float64) {
		if n < 0 {
			c.add(p, "must be >= 0")
		}
	})
}

func (c *checker) checkEquipment(path string, raw interface{}) {
	equipment, ok := raw.(map[string]interface{})
	if !ok {
		c.add(path, "must be an object")
		return
	}
	c.closedKeys(path, equipment, equipmentKeys)
	c.optionalShortText(path, equipment, "grinder")
	c.optionalShortText(path, equipment, "brewer")
}

func (c *checker) checkResult(path string, raw interface{}) {
	result, ok := raw.(map[string]interface{})
	if !ok {
		c.add(path, "must be an object")
		return
	}
	c.closedKeys(path, result, resultKeys)

	c.optionalNumber(path, result, "tds", func(p string, n float64) {
		if n <= 0 {
			c.add(p, "must be greater than 0")
		}
	})
	c.optionalNumber(path, result, "ey", func(p string, n float64) {
		if n <= 0 {
			c.add(p, "must be greater than 0")
		}
	})
	c.optionalNumber(path, result, "brix", func(p string, n float64) {
		if n < 0 {
			c.add(p, "must be >= 0")
		}
	})
	c.optionalString(path, result, "tasting_notes", func(p, s string) {
		c.boundedText(p, s, maxNotes)
	})

	if raw, ok := result["ratings"]; ok {
		rp := path + ".ratings"
		ratings, isMap := raw.(map[string]interface{})
		if !isMap {
			c.add(rp, "must be an object")
			return
		}
		c.closedKeys(rp, ratings, ratingsKeys)
		for key := range ratingsKeys {
			c.optionalInteger(rp, ratings, key, func(p string, n int) {
				if n < 1 || n > 5 {
					c.add(p, "must be between 1 and 5 inclusive")
				}
			})
		}
	}
}

// ---------------------------------------------------------------------------
// Rule primitives
// ---------------------------------------------------------------------------

func (c *checker) closedKeys(path string, obj map[string]interface{}, allowed map[string]struct{}) {
	for key := range obj {
		if _, ok := allowed[key]; !ok {
			c.add(joinPath(path, key), "undeclared key")
		}
	}
}

func (c *checker) requiredString(path string, obj map[string]interface{}, key string, check func(p, s string)) {
	p := joinPath(path, key)
	raw, ok := obj[key]
	if !ok {
		c.add(p, "missing required key")
		return
	}
	s, isStr := raw.(string)
	if !isStr {
		c.add(p, "must be a string")
		return
	}
	check(p, s)
}

func (c *checker) optionalString(path string, obj map[string]interface{}, key string, check func(p, s string)) {
	raw, ok := obj[key]
	if !ok {
		return
	}
	p := joinPath(path, key)
	s, isStr := raw.(string)
	if !isStr {
		c.add(p, "must be a string")
		return
	}
	check(p, s)
}

func (c *checker) optionalShortText(path string, obj map[string]interface{}, key string) {
	c.optionalString(path, obj, key, func(p, s string) {
		c.boundedText(p, s, maxShortText)
	})
}

func (c *checker) requiredNumber(path string, obj map[string]interface{}, key string, check func(p string, n float64)) {
	p := joinPath(path, key)
	raw, ok := obj[key]
	if !ok {
		c.add(p, "missing required key")
		return
	}
	n, isNum := asNumber(raw)
	if !isNum {
		c.add(p, "must be a number")
		return
	}
	check(p, n)
}

func (c *checker) optionalNumber(path string, obj map[string]interface{}, key string, check func(p string, n float64)) {
	raw, ok := obj[key]
	if !ok {
		return
	}
	p := joinPath(path, key)
	n, isNum := asNumber(raw)
	if !isNum {
		c.add(p, "must be a number")
		return
	}
	check(p, n)
}

func (c *checker) optionalInteger(path string, obj map[string]interface{}, key string, check func(p string, n int)) {
	raw, ok := obj[key]
	if !ok {
		return
	}
	p := joinPath(path, key)
	n, isInt := asInteger(raw)
	if !isInt {
		c.add(p, "must be an integer")
		return
	}
	check(p, n)
}

func (c *checker) enum(path, value string, allowed []string) {
	for _, a := range allowed {
		if a == value {
			return
		}
	}
	c.add(path, "must be one of: %s", strings.Join(allowed, ", "))
}

func (c *checker) boundedText(path, s string, max int) {
	if strings.TrimSpace(s) == "" {
		c.add(path, "must not be empty")
		return
	}
	if len(s) > max {
		c.add(path, "must not exceed %d characters", max)
	}
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// asNumber coerces the numeric shapes the YAML and JSON decoders produce.
func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// asInteger accepts native ints and whole-valued floats (JSON decodes every
// number as float64).
func asInteger(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func keySet(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
