package mapping

import (
	"strconv"
	"strings"

	dErrors "scriba/pkg/domain-errors"
)

// Kind identifies a document template type.
type Kind string

const (
	KindPOAAdult      Kind = "poa-adult"
	KindPOAMinor      Kind = "poa-minor"
	KindPOASpouses    Kind = "poa-spouses"
	KindPOACombined   Kind = "poa-combined"
	KindCitizenship   Kind = "citizenship"
	KindFamilyTree    Kind = "family-tree"
	KindTranscription Kind = "transcription"
)

// Historical template-type spellings still sent by older UI builds.
var aliases = map[string]Kind{
	"registration":   KindTranscription,
	"uzupelnienie":   KindTranscription,
	"umiejscowienie": KindTranscription,
}

// childIndexToken marks the spots in the minor-POA table where the assembler
// substitutes a concrete child index before resolution.
const childIndexToken = "{n}"

// Descriptor binds a template type to its storage filename, field mappings,
// and fill policies. Descriptors are immutable, defined at build time.
type Descriptor struct {
	Kind     Kind
	Filename string

	// Fields maps PDF field names to parsed expressions; Raw keeps the table
	// form for child-index substitution and preview diagnostics.
	Fields map[string]Expr
	Raw    map[string]string

	Required []string

	// Attestation marks the Power-of-Attorney family: attester-supplied values
	// render bold at auto-fit size, the document date never does.
	Attestation bool

	// DateField names the designated document-date field auto-filled with the
	// current date when nothing resolved it.
	DateField string

	// NAPolicy enables the citizenship-application placeholder fill for the
	// non-qualifying parental line.
	NAPolicy bool
}

var registry = buildRegistry()

func buildRegistry() map[Kind]*Descriptor {
	out := make(map[Kind]*Descriptor, len(tables))
	for _, t := range tables {
		out[t.Kind] = compile(t)
	}
	return out
}

func compile(t table) *Descriptor {
	d := &Descriptor{
		Kind:        t.Kind,
		Filename:    t.Filename,
		Fields:      make(map[string]Expr, len(t.Fields)),
		Raw:         t.Fields,
		Required:    t.Required,
		Attestation: t.Attestation,
		DateField:   t.DateField,
		NAPolicy:    t.NAPolicy,
	}
	for name, raw := range t.Fields {
		d.Fields[name] = Parse(raw)
	}
	return d
}

// Normalize folds aliases and whitespace into the canonical template type.
func Normalize(templateType string) Kind {
	t := strings.ToLower(strings.TrimSpace(templateType))
	if k, ok := aliases[t]; ok {
		return k
	}
	return Kind(t)
}

// IsValid reports whether the (possibly aliased) template type is known.
func IsValid(templateType string) bool {
	_, ok := registry[Normalize(templateType)]
	return ok
}

// Lookup resolves a template type to its descriptor.
func Lookup(templateType string) (*Descriptor, error) {
	if d, ok := registry[Normalize(templateType)]; ok {
		return d, nil
	}
	return nil, dErrors.New(dErrors.CodeBadRequest, "unknown template type: "+templateType)
}

// ForChild returns a copy of the descriptor with the child-index token
// replaced by the 1-based child number, re-parsed. Used by the composite
// assembler so each minor sub-document reads its own child's fields.
func (d *Descriptor) ForChild(n int) *Descriptor {
	out := &Descriptor{
		Kind:        d.Kind,
		Filename:    d.Filename,
		Fields:      make(map[string]Expr, len(d.Fields)),
		Raw:         make(map[string]string, len(d.Raw)),
		Required:    d.Required,
		Attestation: d.Attestation,
		DateField:   d.DateField,
		NAPolicy:    d.NAPolicy,
	}
	idx := strconv.Itoa(n)
	for name, raw := range d.Raw {
		sub := strings.ReplaceAll(raw, childIndexToken, idx)
		out.Raw[name] = sub
		out.Fields[name] = Parse(sub)
	}
	return out
}
