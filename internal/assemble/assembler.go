// Package assemble builds the combined Power-of-Attorney bundle: templates
// whose sub-document count depends on the case data.
package assemble

import (
	"context"
	"log/slog"

	"scriba/internal/mapping"
	"scriba/internal/masterdata"
	"scriba/internal/pdffill"
	"scriba/internal/templates"
	dErrors "scriba/pkg/domain-errors"
)

// Assembler fills each sub-template independently and concatenates the pages.
type Assembler struct {
	engine    pdffill.Engine
	filler    *pdffill.Filler
	templates templates.Source
	logger    *slog.Logger
}

func New(engine pdffill.Engine, filler *pdffill.Filler, source templates.Source, logger *slog.Logger) *Assembler {
	return &Assembler{engine: engine, filler: filler, templates: source, logger: logger}
}

// step is one sub-document of the bundle, in output order.
type step struct {
	desc *mapping.Descriptor
}

// plan decides the bundle composition. The order is a fixed contract with
// downstream consumers: page 1 is the adult document, then one page per minor
// child, then the spouses page when spouse data is present.
//
// The minor count comes from the explicit minor_children_count field, never
// from scanning child slots: sparse child name data must not change the page
// layout.
func plan(rec masterdata.Record) ([]step, error) {
	adult, err := mapping.Lookup(string(mapping.KindPOAAdult))
	if err != nil {
		return nil, err
	}
	minor, err := mapping.Lookup(string(mapping.KindPOAMinor))
	if err != nil {
		return nil, err
	}

	steps := []step{{desc: adult}}
	for i := 1; i <= rec.MinorChildren(); i++ {
		steps = append(steps, step{desc: minor.ForChild(i)})
	}

	if rec.HasSpouse() {
		spouses, err := mapping.Lookup(string(mapping.KindPOASpouses))
		if err != nil {
			return nil, err
		}
		steps = append(steps, step{desc: spouses})
	}
	return steps, nil
}

// Assemble produces the combined bundle: filled bytes, aggregate statistics,
// and the sub-document (page) count.
func (a *Assembler) Assemble(ctx context.Context, rec masterdata.Record) ([]byte, pdffill.Result, int, error) {
	steps, err := plan(rec)
	if err != nil {
		return nil, pdffill.Result{}, 0, err
	}

	// One bundle reuses each sub-template's bytes across steps.
	bytesByFile := make(map[string][]byte, 3)

	docs := make([][]byte, 0, len(steps))
	var total pdffill.Result
	for _, st := range steps {
		tpl, ok := bytesByFile[st.desc.Filename]
		if !ok {
			tpl, err = a.templates.Download(ctx, st.desc.Filename)
			if err != nil {
				return nil, pdffill.Result{}, 0, err
			}
			bytesByFile[st.desc.Filename] = tpl
		}

		filled, res, err := a.filler.Fill(ctx, tpl, st.desc, rec)
		if err != nil {
			return nil, pdffill.Result{}, 0, dErrors.Wrap(dErrors.CodeInternal, "fill "+string(st.desc.Kind), err)
		}
		docs = append(docs, filled)
		total = total.Add(res)
	}

	merged, err := a.engine.Merge(ctx, docs)
	if err != nil {
		return nil, pdffill.Result{}, 0, dErrors.Wrap(dErrors.CodeInternal, "merge bundle", err)
	}

	a.logger.InfoContext(ctx, "combined bundle assembled",
		"sub_documents", len(steps),
		"minors", rec.MinorChildren(),
		"spouse", rec.HasSpouse(),
		"fill_rate", total.FillRate(),
	)
	return merged, total, len(steps), nil
}

// Preview classifies every field of every sub-document the bundle would
// contain, using the same plan and resolution path as Assemble.
func (a *Assembler) Preview(ctx context.Context, rec masterdata.Record) ([]pdffill.FieldPreview, pdffill.Result, int, error) {
	steps, err := plan(rec)
	if err != nil {
		return nil, pdffill.Result{}, 0, err
	}

	bytesByFile := make(map[string][]byte, 3)

	var previews []pdffill.FieldPreview
	var total pdffill.Result
	for _, st := range steps {
		tpl, ok := bytesByFile[st.desc.Filename]
		if !ok {
			tpl, err = a.templates.Download(ctx, st.desc.Filename)
			if err != nil {
				return nil, pdffill.Result{}, 0, err
			}
			bytesByFile[st.desc.Filename] = tpl
		}

		fields, res, err := a.filler.Preview(ctx, tpl, st.desc, rec)
		if err != nil {
			return nil, pdffill.Result{}, 0, err
		}
		previews = append(previews, fields...)
		total = total.Add(res)
	}
	return previews, total, len(steps), nil
}
