package pdffill

import (
	"context"
	"sort"

	"scriba/internal/mapping"
	"scriba/internal/masterdata"
)

// FieldPreview classifies one declared template field without mutating the
// template: what would be written and where the value came from. Required
// flags fields reading record inputs that are on the descriptor's required
// list but still absent, so the UI can chase missing data before generating.
type FieldPreview struct {
	Name       string `json:"name"`
	Value      string `json:"value,omitempty"`
	Expression string `json:"expression,omitempty"`
	Source     Source `json:"source"`
	Filled     bool   `json:"filled"`
	Required   bool   `json:"required"`
}

// Preview runs the same resolution pass as Fill and reports the outcome per
// field, for inspection before committing to a full generation.
func (f *Filler) Preview(ctx context.Context, template []byte, desc *mapping.Descriptor, rec masterdata.Record) ([]FieldPreview, Result, error) {
	fields, err := f.engine.Fields(ctx, template)
	if err != nil {
		return nil, Result{}, err
	}

	resolvedByName := f.resolve(desc, rec, fields)
	required := requiredRefs(desc, rec)

	written := make(map[string]bool, len(fields))
	for _, v := range f.values(desc, fields, resolvedByName) {
		written[v.Name] = true
	}

	previews := make([]FieldPreview, 0, len(fields))
	var filled int
	for _, field := range fields {
		p := FieldPreview{
			Name:       field.Name,
			Expression: desc.Raw[field.Name],
			Source:     SourceNone,
		}
		if r, ok := resolvedByName[field.Name]; ok && written[field.Name] {
			p.Value = r.value
			p.Source = r.source
			p.Filled = true
			filled++
		}
		if expr, ok := desc.Fields[field.Name]; ok {
			p.Required = touchesRequired(expr, required)
		}
		previews = append(previews, p)
	}

	sort.Slice(previews, func(i, j int) bool { return previews[i].Name < previews[j].Name })

	return previews, Result{Total: len(fields), Filled: filled}, nil
}

// requiredRefs returns the descriptor's required record fields that the
// record does not satisfy yet.
func requiredRefs(desc *mapping.Descriptor, rec masterdata.Record) map[string]bool {
	out := make(map[string]bool, len(desc.Required))
	for _, key := range desc.Required {
		if _, ok := rec.Get(key); !ok {
			out[key] = true
		}
	}
	return out
}

func touchesRequired(expr mapping.Expr, missing map[string]bool) bool {
	for _, ref := range expr.Refs() {
		if missing[ref] {
			return true
		}
	}
	return false
}
