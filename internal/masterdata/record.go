// Package masterdata models the per-case client data record consumed by
// document generation. The record mirrors the loosely typed storage layer: a
// flat map from snake_case field names to scalar values, where every attribute
// is optional. Lookups degrade to "absent" rather than fail.
package masterdata

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is one case's flat field map. Values are strings, booleans, numbers,
// nested objects (map[string]any, e.g. addresses), or nil.
type Record map[string]any

// Role identifies a person slot in the record via its field-name prefix.
type Role string

const (
	RoleApplicant Role = "applicant"
	RoleSpouse    Role = "spouse"
	RoleFather    Role = "father"
	RoleMother    Role = "mother"

	// Grandparents: paternal/maternal grandfather/grandmother.
	RolePGF Role = "pgf"
	RolePGM Role = "pgm"
	RoleMGF Role = "mgf"
	RoleMGM Role = "mgm"

	// Great-grandparents on the paternal great-grandfather line and siblings.
	RolePGGF Role = "pggf"
	RolePGGM Role = "pggm"
	RoleMGGF Role = "mggf"
	RoleMGGM Role = "mggm"
)

// MaxChildren caps the indexed child slots carried by a record.
const MaxChildren = 10

// Get returns the value under key coerced to a display string. Missing keys,
// nil values, and empty strings all report absent.
func (r Record) Get(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	s := coerce(v)
	if s == "" {
		return "", false
	}
	return s, true
}

// Bool reads a boolean flag. Accepts native bools and their common string
// spellings; anything else is false.
func (r Record) Bool(key string) bool {
	if r == nil {
		return false
	}
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1", "tak":
			return true
		}
	}
	return false
}

// Int reads an integer field, tolerating the numeric types JSON decoding
// produces. Returns 0 when the field is missing or not numeric.
func (r Record) Int(key string) int {
	if r == nil {
		return 0
	}
	switch v := r[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return 0
}

// Nested walks a dotted path whose first segment is a record key holding a
// nested object (e.g. applicant_address.city). Absent if any segment is
// missing or not an object along the way.
func (r Record) Nested(segments []string) (string, bool) {
	if r == nil || len(segments) == 0 {
		return "", false
	}
	var cur any = map[string]any(r)
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			if rec, isRec := cur.(Record); isRec {
				m = map[string]any(rec)
			} else {
				return "", false
			}
		}
		cur, ok = m[seg]
		if !ok || cur == nil {
			return "", false
		}
	}
	s := coerce(cur)
	if s == "" {
		return "", false
	}
	return s, true
}

// Attr reads one attribute of a role, e.g. Attr(RoleMother, "maiden_name")
// reads "mother_maiden_name".
func (r Record) Attr(role Role, attr string) (string, bool) {
	return r.Get(string(role) + "_" + attr)
}

// MinorChildren reads the explicit minor-children count field. The count field
// is the single source of truth even when child name slots are sparse; it is
// clamped to [0, MaxChildren].
func (r Record) MinorChildren() int {
	n := r.Int("minor_children_count")
	if n < 0 {
		return 0
	}
	if n > MaxChildren {
		return MaxChildren
	}
	return n
}

// HasSpouse reports whether the record shows any spouse name data.
func (r Record) HasSpouse() bool {
	if _, ok := r.Attr(RoleSpouse, "first_name"); ok {
		return true
	}
	_, ok := r.Attr(RoleSpouse, "last_name")
	return ok
}

func coerce(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		// JSON numbers arrive as float64; whole values print without a decimal.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any, Record:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
