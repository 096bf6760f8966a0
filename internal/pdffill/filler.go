package pdffill

import (
	"context"
	"log/slog"
	"math"
	"time"

	"scriba/internal/mapping"
	"scriba/internal/masterdata"
)

// NotApplicable is the placeholder written into the non-qualifying ancestral
// line on the citizenship application.
const NotApplicable = "nie dotyczy"

// documentDateFormat is the administratively stamped date on generated
// documents.
const documentDateFormat = "02/01/2006"

// Source labels where a field's value came from, for preview diagnostics.
type Source string

const (
	SourceMapping     Source = "mapping"
	SourceRecord      Source = "record"
	SourceAuto        Source = "auto"
	SourcePlaceholder Source = "placeholder"
	SourceNone        Source = "none"
)

// Result reports fill statistics for one template. Informational only; a low
// fill rate never blocks output.
type Result struct {
	Total  int
	Filled int
}

// FillRate is the percentage of declared fields that received a value,
// rounded to the nearest integer. Zero declared fields yields zero.
func (r Result) FillRate() int {
	if r.Total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(r.Filled) / float64(r.Total)))
}

// Add folds sub-document statistics into an aggregate.
func (r Result) Add(other Result) Result {
	return Result{Total: r.Total + other.Total, Filled: r.Filled + other.Filled}
}

// Filler resolves mapping expressions against a record and writes the results
// into template form fields.
type Filler struct {
	engine Engine
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Filler.
type Option func(*Filler)

func WithLogger(logger *slog.Logger) Option {
	return func(f *Filler) { f.logger = logger }
}

// WithClock overrides the document-date clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(f *Filler) { f.now = now }
}

func New(engine Engine, opts ...Option) *Filler {
	f := &Filler{
		engine: engine,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// resolved is one field's outcome from the shared resolution pass.
type resolved struct {
	value  string
	source Source
}

// resolve runs the one resolution algorithm shared by Fill and Preview so the
// two can never drift. For each declared field: mapped expression first, then
// a direct same-name record lookup, then the document-date auto-fill, then the
// citizenship placeholder policy.
func (f *Filler) resolve(desc *mapping.Descriptor, rec masterdata.Record, fields []FormField) map[string]resolved {
	out := make(map[string]resolved, len(fields))

	for _, field := range fields {
		if expr, ok := desc.Fields[field.Name]; ok {
			if v, found := expr.Resolve(rec); found {
				out[field.Name] = resolved{value: v, source: SourceMapping}
			}
			continue
		}
		// Untracked but identically named fields still populate.
		if v, found := rec.Get(field.Name); found {
			out[field.Name] = resolved{value: v, source: SourceRecord}
		}
	}

	if desc.DateField != "" {
		if _, ok := out[desc.DateField]; !ok && hasField(fields, desc.DateField) {
			out[desc.DateField] = resolved{value: f.now().Format(documentDateFormat), source: SourceAuto}
		}
	}

	if desc.NAPolicy {
		f.applyPlaceholders(desc, rec, fields, out)
	}

	return out
}

// applyPlaceholders force-fills the non-qualifying parental line with the
// NotApplicable token. It runs only when exactly one line is flagged Polish;
// both or neither flagged leaves every field untouched.
func (f *Filler) applyPlaceholders(desc *mapping.Descriptor, rec masterdata.Record, fields []FormField, out map[string]resolved) {
	fatherPolish := rec.Bool("father_is_polish")
	motherPolish := rec.Bool("mother_is_polish")
	if fatherPolish == motherPolish {
		return
	}

	naLine := mapping.LineMaternal
	if motherPolish {
		naLine = mapping.LinePaternal
	}

	for _, field := range fields {
		if field.Type != FieldText {
			continue
		}
		if _, alreadySet := out[field.Name]; alreadySet {
			continue
		}
		expr, ok := desc.Fields[field.Name]
		if !ok {
			continue
		}
		if mapping.LineOf(expr) == naLine {
			out[field.Name] = resolved{value: NotApplicable, source: SourcePlaceholder}
		}
	}
}

// Fill produces filled document bytes plus statistics for one template.
func (f *Filler) Fill(ctx context.Context, template []byte, desc *mapping.Descriptor, rec masterdata.Record) ([]byte, Result, error) {
	fields, err := f.engine.Fields(ctx, template)
	if err != nil {
		return nil, Result{}, err
	}

	values := f.values(desc, fields, f.resolve(desc, rec, fields))

	filled, err := f.engine.Fill(ctx, template, values)
	if err != nil {
		return nil, Result{}, err
	}

	res := Result{Total: len(fields), Filled: len(values)}
	f.logger.DebugContext(ctx, "template filled",
		"template", desc.Kind,
		"fields", res.Total,
		"filled", res.Filled,
		"fill_rate", res.FillRate(),
	)
	return filled, res, nil
}

// values converts the resolution pass into concrete field writes, applying
// the typography policy. Preview reuses it so filled/unfilled classification
// can never drift from what Fill actually writes.
func (f *Filler) values(desc *mapping.Descriptor, fields []FormField, resolvedByName map[string]resolved) []FieldValue {
	values := make([]FieldValue, 0, len(resolvedByName))
	for _, field := range fields {
		r, ok := resolvedByName[field.Name]
		if !ok {
			continue
		}
		switch field.Type {
		case FieldText:
			values = append(values, FieldValue{
				Name:  field.Name,
				Type:  FieldText,
				Value: r.value,
				// The document date always renders non-bold so an
				// administratively stamped date stays visually distinct from
				// attester-supplied data.
				Bold: desc.Attestation && field.Name != desc.DateField,
			})
		case FieldCheckBox:
			if affirmative(r.value) {
				values = append(values, FieldValue{
					Name:    field.Name,
					Type:    FieldCheckBox,
					Checked: true,
				})
			}
		default:
			// Controls that cannot accept a text write are skipped silently.
		}
	}
	return values
}

func affirmative(v string) bool {
	switch v {
	case mapping.CheckedValue, "true", "yes", "tak", "1":
		return true
	}
	return false
}

func hasField(fields []FormField, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}
