package assemble

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"scriba/internal/masterdata"
	"scriba/internal/pdffill"
	dErrors "scriba/pkg/domain-errors"
)

// bundleEngine declares per-template field lists and records every fill so
// tests can inspect which sub-documents were produced, in which order, and
// with which child's data.
type bundleEngine struct {
	fieldsByTemplate map[string][]pdffill.FormField
	fills            []fillCall
	mergeCounts      []int
}

type fillCall struct {
	template string
	values   map[string]string
}

func (e *bundleEngine) Fields(_ context.Context, template []byte) ([]pdffill.FormField, error) {
	return e.fieldsByTemplate[string(template)], nil
}

func (e *bundleEngine) Fill(_ context.Context, template []byte, values []pdffill.FieldValue) ([]byte, error) {
	byName := make(map[string]string, len(values))
	for _, v := range values {
		byName[v.Name] = v.Value
	}
	e.fills = append(e.fills, fillCall{template: string(template), values: byName})
	return template, nil
}

func (e *bundleEngine) Lock(_ context.Context, doc []byte) ([]byte, error) { return doc, nil }

func (e *bundleEngine) Merge(_ context.Context, docs [][]byte) ([]byte, error) {
	e.mergeCounts = append(e.mergeCounts, len(docs))
	var out []byte
	for _, d := range docs {
		out = append(out, d...)
	}
	return out, nil
}

// templateBytes serves each POA template as its own marker bytes.
type templateBytes struct{}

func (templateBytes) Download(_ context.Context, filename string) ([]byte, error) {
	switch filename {
	case "pelnomocnictwo-dorosly.pdf":
		return []byte("adult"), nil
	case "pelnomocnictwo-maloletni.pdf":
		return []byte("minor"), nil
	case "pelnomocnictwo-malzonkowie.pdf":
		return []byte("spouses"), nil
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "template not found: "+filename)
}

type AssemblerSuite struct {
	suite.Suite
	ctx       context.Context
	engine    *bundleEngine
	assembler *Assembler
}

func TestAssemblerSuite(t *testing.T) {
	suite.Run(t, new(AssemblerSuite))
}

func (s *AssemblerSuite) SetupTest() {
	s.ctx = context.Background()
	s.engine = &bundleEngine{fieldsByTemplate: map[string][]pdffill.FormField{
		"adult": {
			{Name: "applicant_full_name", Type: pdffill.FieldText},
			{Name: "poa_date", Type: pdffill.FieldText},
		},
		"minor": {
			{Name: "child_given_names", Type: pdffill.FieldText},
			{Name: "child_surname", Type: pdffill.FieldText},
		},
		"spouses": {
			{Name: "spouse_full_name", Type: pdffill.FieldText},
		},
	}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	filler := pdffill.New(s.engine,
		pdffill.WithLogger(logger),
		pdffill.WithClock(func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }),
	)
	s.assembler = New(s.engine, filler, templateBytes{}, logger)
}

func (s *AssemblerSuite) TestThreeMinorsNoSpouse() {
	rec := masterdata.Record{
		"applicant_first_name": "Jan",
		"applicant_last_name":  "Kowalski",
		"minor_children_count": 3,
		"child_1_first_name":   "Ala",
		"child_1_last_name":    "Kowalska",
		"child_2_first_name":   "Olek",
		"child_2_last_name":    "Kowalski",
		"child_3_first_name":   "Ewa",
		"child_3_last_name":    "Kowalska",
		// Populated slots beyond the count must not add pages.
		"child_4_first_name": "Zosia",
		"child_5_first_name": "Tomek",
	}

	_, res, pages, err := s.assembler.Assemble(s.ctx, rec)
	s.Require().NoError(err)

	s.Equal(4, pages, "1 adult + 3 minors + 0 spouses")
	s.Equal([]int{4}, s.engine.mergeCounts)
	s.Require().Len(s.engine.fills, 4)

	s.Equal("adult", s.engine.fills[0].template)
	s.Equal("Jan Kowalski", s.engine.fills[0].values["applicant_full_name"])

	for i, want := range []string{"Ala", "Olek", "Ewa"} {
		call := s.engine.fills[i+1]
		s.Equal("minor", call.template)
		s.Equal(want, call.values["child_given_names"], "minor page %d uses child %d", i+1, i+1)
	}

	// 2 adult fields + 3×2 minor fields, all filled (poa_date auto-fills).
	s.Equal(8, res.Total)
	s.Equal(8, res.Filled)
	s.Equal(100, res.FillRate())
}

func (s *AssemblerSuite) TestCountFieldIsSourceOfTruthWhenSlotsSparse() {
	rec := masterdata.Record{
		"applicant_first_name": "Jan",
		"minor_children_count": 2,
		// No child name fields populated at all.
	}

	_, _, pages, err := s.assembler.Assemble(s.ctx, rec)
	s.Require().NoError(err)
	s.Equal(3, pages, "count field drives pages even with empty child slots")
}

func (s *AssemblerSuite) TestSpousePageAppendedWhenSpouseDataPresent() {
	rec := masterdata.Record{
		"applicant_first_name": "Jan",
		"spouse_first_name":    "Anna",
		"spouse_last_name":     "Kowalska",
	}

	_, _, pages, err := s.assembler.Assemble(s.ctx, rec)
	s.Require().NoError(err)

	s.Equal(2, pages)
	last := s.engine.fills[len(s.engine.fills)-1]
	s.Equal("spouses", last.template)
	s.Equal("Anna Kowalska", last.values["spouse_full_name"])
}

func (s *AssemblerSuite) TestSpousePageFromLastNameOnly() {
	rec := masterdata.Record{"spouse_last_name": "Kowalska"}

	_, _, pages, err := s.assembler.Assemble(s.ctx, rec)
	s.Require().NoError(err)
	s.Equal(2, pages)
}

func (s *AssemblerSuite) TestNoSpousePageWithoutSpouseData() {
	_, _, pages, err := s.assembler.Assemble(s.ctx, masterdata.Record{})
	s.Require().NoError(err)
	s.Equal(1, pages, "an empty record still yields the adult page alone")
}

func (s *AssemblerSuite) TestMinorCountClamped() {
	rec := masterdata.Record{"minor_children_count": 25}

	_, _, pages, err := s.assembler.Assemble(s.ctx, rec)
	s.Require().NoError(err)
	s.Equal(1+masterdata.MaxChildren, pages)
}

func (s *AssemblerSuite) TestMissingSubTemplateIsFatal() {
	broken := &Assembler{
		engine:    s.engine,
		filler:    pdffill.New(s.engine),
		templates: missingTemplates{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	_, _, _, err := broken.Assemble(s.ctx, masterdata.Record{})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

type missingTemplates struct{}

func (missingTemplates) Download(_ context.Context, filename string) ([]byte, error) {
	return nil, dErrors.New(dErrors.CodeNotFound, "template not found: "+filename)
}

func (s *AssemblerSuite) TestPreviewMirrorsAssemblePlan() {
	rec := masterdata.Record{
		"applicant_first_name": "Jan",
		"minor_children_count": 1,
		"child_1_first_name":   "Ala",
		"spouse_first_name":    "Anna",
	}

	previews, res, pages, err := s.assembler.Preview(s.ctx, rec)
	s.Require().NoError(err)

	s.Equal(3, pages)
	s.Equal(2+2+1, res.Total)
	s.NotEmpty(previews)
	s.Empty(s.engine.fills, "preview never fills")
}
