// Package mapping holds the declarative field-mapping tables and the
// expression grammar that derives field values from a master record.
//
// Expressions are data, not code. They are parsed once at registry load into a
// small AST; resolution against a record is deterministic and side-effect
// free. The grammar has five shapes, checked in this precedence order:
//
//  1. sentinel     "@checked", "@checked_if:<field>", "@const:<text>"
//  2. concat       "field_a|field_b"        join present parts with one space
//  3. date part    "<field>.day|.month|.year" on DD.MM.YYYY or YYYY-MM-DD
//  4. nested path  "<field>.<key>[.<key>...]" into a nested object value
//  5. direct       "<field>"                plain record lookup
//
// Anything that fits no other shape falls through to direct lookup and simply
// resolves to absent when no such field exists. That leniency is intentional:
// a typo in a mapping table degrades one field, never a whole document.
package mapping

import (
	"fmt"
	"regexp"
	"strings"

	"scriba/internal/masterdata"
)

// Expr resolves to a single display string against a record, or reports
// absent. Refs exposes the record keys an expression may read, which the
// filler uses to classify fields by ancestral line.
type Expr interface {
	Resolve(rec masterdata.Record) (string, bool)
	Refs() []string
}

// CheckedValue is what affirmative sentinel expressions resolve to. The filler
// interprets it as "mark the checkbox" for checkbox controls and writes it
// verbatim into text controls.
const CheckedValue = "X"

type (
	// Direct is a plain record field lookup.
	Direct string

	// Concat joins the present values of several record fields with spaces.
	Concat []string

	// DatePart projects day, month, or year out of a date-valued field.
	DatePart struct {
		Field string
		Part  string
	}

	// NestedPath walks into a nested object value in the record.
	NestedPath []string

	// Constant is a fixed default value, e.g. a registry office name.
	Constant string

	// Checked always resolves to CheckedValue.
	Checked struct{}

	// CheckedIf resolves to CheckedValue iff the named field is non-empty.
	CheckedIf string
)

const (
	sentinelChecked   = "@checked"
	sentinelCheckedIf = "@checked_if:"
	sentinelConst     = "@const:"
)

// Parse interprets one mapping expression. It never fails; unrecognized input
// falls back to a Direct lookup.
func Parse(s string) Expr {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "@") {
		switch {
		case s == sentinelChecked:
			return Checked{}
		case strings.HasPrefix(s, sentinelCheckedIf):
			return CheckedIf(s[len(sentinelCheckedIf):])
		case strings.HasPrefix(s, sentinelConst):
			return Constant(s[len(sentinelConst):])
		}
		return Direct(s)
	}

	if strings.Contains(s, "|") {
		parts := strings.Split(s, "|")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return Concat(parts)
	}

	if strings.Contains(s, ".") {
		segments := strings.Split(s, ".")
		last := segments[len(segments)-1]
		if len(segments) == 2 && (last == "day" || last == "month" || last == "year") {
			return DatePart{Field: segments[0], Part: last}
		}
		return NestedPath(segments)
	}

	return Direct(s)
}

func (e Direct) Resolve(rec masterdata.Record) (string, bool) { return rec.Get(string(e)) }
func (e Direct) Refs() []string                               { return []string{string(e)} }

func (e Concat) Resolve(rec masterdata.Record) (string, bool) {
	parts := make([]string, 0, len(e))
	for _, field := range e {
		if v, ok := rec.Get(field); ok {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}

func (e Concat) Refs() []string { return []string(e) }

var (
	dottedDate = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`)
	isoDate    = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

func (e DatePart) Resolve(rec masterdata.Record) (string, bool) {
	raw, ok := rec.Get(e.Field)
	if !ok {
		return "", false
	}

	var day, month, year string
	if m := dottedDate.FindStringSubmatch(raw); m != nil {
		day, month, year = m[1], m[2], m[3]
	} else if m := isoDate.FindStringSubmatch(raw); m != nil {
		year, month, day = m[1], m[2], m[3]
	} else {
		return "", false
	}

	switch e.Part {
	case "day":
		return pad2(day), true
	case "month":
		return pad2(month), true
	case "year":
		return year, true
	}
	return "", false
}

func (e DatePart) Refs() []string { return []string{e.Field} }

func (e NestedPath) Resolve(rec masterdata.Record) (string, bool) {
	return rec.Nested([]string(e))
}

func (e NestedPath) Refs() []string {
	if len(e) == 0 {
		return nil
	}
	return []string{e[0]}
}

func (e Constant) Resolve(masterdata.Record) (string, bool) { return string(e), string(e) != "" }
func (e Constant) Refs() []string                           { return nil }

func (e Checked) Resolve(masterdata.Record) (string, bool) { return CheckedValue, true }
func (e Checked) Refs() []string                           { return nil }

func (e CheckedIf) Resolve(rec masterdata.Record) (string, bool) {
	if _, ok := rec.Get(string(e)); ok {
		return CheckedValue, true
	}
	return "", false
}

func (e CheckedIf) Refs() []string { return []string{string(e)} }

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// String renders the expression back in table form, for preview diagnostics.
func (e DatePart) String() string { return fmt.Sprintf("%s.%s", e.Field, e.Part) }
