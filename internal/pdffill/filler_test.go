package pdffill

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"scriba/internal/mapping"
	"scriba/internal/masterdata"
)

// fakeEngine declares a fixed field list and records the writes it receives,
// so fill semantics are tested without binary PDF fixtures.
type fakeEngine struct {
	fields []FormField
	writes []FieldValue
	locked bool
	merged int
}

func (e *fakeEngine) Fields(context.Context, []byte) ([]FormField, error) {
	return e.fields, nil
}

func (e *fakeEngine) Fill(_ context.Context, template []byte, values []FieldValue) ([]byte, error) {
	e.writes = values
	return append([]byte{}, template...), nil
}

func (e *fakeEngine) Lock(_ context.Context, doc []byte) ([]byte, error) {
	e.locked = true
	return doc, nil
}

func (e *fakeEngine) Merge(_ context.Context, docs [][]byte) ([]byte, error) {
	e.merged = len(docs)
	var out []byte
	for _, d := range docs {
		out = append(out, d...)
	}
	return out, nil
}

func (e *fakeEngine) valueOf(name string) (FieldValue, bool) {
	for _, w := range e.writes {
		if w.Name == name {
			return w, true
		}
	}
	return FieldValue{}, false
}

type FillerSuite struct {
	suite.Suite
	ctx context.Context
	now time.Time
}

func TestFillerSuite(t *testing.T) {
	suite.Run(t, new(FillerSuite))
}

func (s *FillerSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
}

func (s *FillerSuite) newFiller(engine Engine) *Filler {
	return New(engine, WithClock(func() time.Time { return s.now }))
}

func textFields(names ...string) []FormField {
	out := make([]FormField, len(names))
	for i, n := range names {
		out[i] = FormField{Name: n, Type: FieldText}
	}
	return out
}

func (s *FillerSuite) TestAdultPOAEndToEnd() {
	engine := &fakeEngine{fields: textFields("applicant_given_names", "applicant_surname", "poa_date")}
	filler := s.newFiller(engine)
	desc, err := mapping.Lookup("poa-adult")
	s.Require().NoError(err)

	rec := masterdata.Record{
		"applicant_first_name": "Jan",
		"applicant_last_name":  "Kowalski",
	}

	_, res, err := filler.Fill(s.ctx, []byte("tpl"), desc, rec)
	s.Require().NoError(err)

	given, ok := engine.valueOf("applicant_given_names")
	s.True(ok)
	s.Equal("Jan", given.Value)
	s.True(given.Bold, "attestation documents render values bold")

	surname, _ := engine.valueOf("applicant_surname")
	s.Equal("Kowalski", surname.Value)

	date, ok := engine.valueOf("poa_date")
	s.True(ok)
	s.Equal("30/08/2026", date.Value)
	s.False(date.Bold, "the document date is never bold")

	s.Equal(3, res.Total)
	s.Equal(3, res.Filled)
	s.Equal(100, res.FillRate())
}

func (s *FillerSuite) TestDateFieldNotAutoFilledWhenRecordHasIt() {
	engine := &fakeEngine{fields: textFields("poa_date")}
	filler := s.newFiller(engine)
	desc, _ := mapping.Lookup("poa-adult")

	rec := masterdata.Record{"poa_date_filed": "12.01.2026"}
	_, _, err := filler.Fill(s.ctx, []byte("tpl"), desc, rec)
	s.Require().NoError(err)

	date, _ := engine.valueOf("poa_date")
	s.Equal("12.01.2026", date.Value)
}

func (s *FillerSuite) TestUntrackedFieldFallsBackToRecord() {
	engine := &fakeEngine{fields: textFields("case_reference")}
	filler := s.newFiller(engine)
	desc, _ := mapping.Lookup("poa-adult")

	rec := masterdata.Record{"case_reference": "KB-2026-0042"}
	_, res, err := filler.Fill(s.ctx, []byte("tpl"), desc, rec)
	s.Require().NoError(err)

	v, ok := engine.valueOf("case_reference")
	s.True(ok)
	s.Equal("KB-2026-0042", v.Value)
	s.Equal(1, res.Filled)
}

func (s *FillerSuite) TestNonTextControlsSkippedSilently() {
	engine := &fakeEngine{fields: []FormField{
		{Name: "applicant_given_names", Type: FieldText},
		{Name: "some_radio_group", Type: FieldOther},
	}}
	filler := s.newFiller(engine)
	desc, _ := mapping.Lookup("poa-adult")

	rec := masterdata.Record{
		"applicant_first_name": "Jan",
		"some_radio_group":     "option-a",
	}
	_, res, err := filler.Fill(s.ctx, []byte("tpl"), desc, rec)
	s.Require().NoError(err)

	_, ok := engine.valueOf("some_radio_group")
	s.False(ok)
	s.Equal(2, res.Total)
	s.Equal(1, res.Filled)
	s.Equal(50, res.FillRate())
}

func (s *FillerSuite) TestCheckboxSentinels() {
	engine := &fakeEngine{fields: []FormField{
		{Name: "declaration_of_truth", Type: FieldCheckBox},
		{Name: "has_birth_certificate", Type: FieldCheckBox},
		{Name: "mother_is_polish", Type: FieldCheckBox},
	}}
	filler := s.newFiller(engine)
	desc, _ := mapping.Lookup("citizenship")

	rec := masterdata.Record{"applicant_has_birth_cert": true}
	_, _, err := filler.Fill(s.ctx, []byte("tpl"), desc, rec)
	s.Require().NoError(err)

	decl, ok := engine.valueOf("declaration_of_truth")
	s.True(ok)
	s.True(decl.Checked)

	cert, ok := engine.valueOf("has_birth_certificate")
	s.True(ok)
	s.True(cert.Checked)

	_, ok = engine.valueOf("mother_is_polish")
	s.False(ok, "unflagged checkbox stays unwritten")
}

func citizenshipLineFields() []FormField {
	return textFields(
		"applicant_given_names",
		"father_full_name", "father_dob",
		"pgf_full_name", "pgm_full_name",
		"mother_full_name", "mother_dob",
		"mgf_full_name", "mgm_full_name",
	)
}

func (s *FillerSuite) TestPlaceholderFillMaternalLine() {
	engine := &fakeEngine{fields: citizenshipLineFields()}
	filler := s.newFiller(engine)
	desc, _ := mapping.Lookup("citizenship")

	rec := masterdata.Record{
		"applicant_first_name": "Jan",
		"father_is_polish":     true,
		"mother_is_polish":     false,
		"father_first_name":    "Tadeusz",
		"father_last_name":     "Kowalski",
		"mother_first_name":    "Mary", // resolved maternal fields stay as-is
	}

	_, _, err := filler.Fill(s.ctx, []byte("tpl"), desc, rec)
	s.Require().NoError(err)

	for _, name := range []string{"mother_dob", "mgf_full_name", "mgm_full_name"} {
		v, ok := engine.valueOf(name)
		s.True(ok, "%s should be placeholder-filled", name)
		s.Equal(NotApplicable, v.Value)
	}

	mother, ok := engine.valueOf("mother_full_name")
	s.True(ok)
	s.Equal("Mary", mother.Value, "resolved maternal fields keep their values")

	// Paternal-line fields are untouched by the rule.
	father, _ := engine.valueOf("father_full_name")
	s.Equal("Tadeusz Kowalski", father.Value)
	_, ok = engine.valueOf("pgf_full_name")
	s.False(ok, "unresolved qualifying-line fields stay blank")
}

func (s *FillerSuite) TestNoPlaceholderFillWhenBothOrNeitherFlagged() {
	for _, rec := range []masterdata.Record{
		{"father_is_polish": true, "mother_is_polish": true},
		{"father_is_polish": false, "mother_is_polish": false},
		{},
	} {
		engine := &fakeEngine{fields: citizenshipLineFields()}
		filler := s.newFiller(engine)
		desc, _ := mapping.Lookup("citizenship")

		_, _, err := filler.Fill(s.ctx, []byte("tpl"), desc, rec)
		s.Require().NoError(err)

		for _, w := range engine.writes {
			s.NotEqual(NotApplicable, w.Value, "field %s", w.Name)
		}
	}
}

func (s *FillerSuite) TestPlaceholderPolicyOnlyOnCitizenship() {
	engine := &fakeEngine{fields: textFields("applicant_full_name", "mother_full_name")}
	filler := s.newFiller(engine)
	desc, _ := mapping.Lookup("family-tree")

	rec := masterdata.Record{
		"applicant_first_name": "Jan",
		"father_is_polish":     true,
	}
	_, _, err := filler.Fill(s.ctx, []byte("tpl"), desc, rec)
	s.Require().NoError(err)

	_, ok := engine.valueOf("mother_full_name")
	s.False(ok)
}

func (s *FillerSuite) TestNonAttestationDocumentsUseDefaultFace() {
	engine := &fakeEngine{fields: textFields("applicant_given_names")}
	filler := s.newFiller(engine)
	desc, _ := mapping.Lookup("citizenship")

	rec := masterdata.Record{"applicant_first_name": "Jan"}
	_, _, err := filler.Fill(s.ctx, []byte("tpl"), desc, rec)
	s.Require().NoError(err)

	v, _ := engine.valueOf("applicant_given_names")
	s.False(v.Bold)
}

func (s *FillerSuite) TestEmptyRecordProducesBlankDocument() {
	engine := &fakeEngine{fields: textFields("applicant_given_names", "applicant_surname")}
	filler := s.newFiller(engine)
	desc, _ := mapping.Lookup("family-tree")

	out, res, err := filler.Fill(s.ctx, []byte("tpl"), desc, masterdata.Record{})
	s.Require().NoError(err)
	s.NotNil(out)
	s.Equal(0, res.Filled)
	s.Equal(0, res.FillRate())
}

func (s *FillerSuite) TestFillRateBounds() {
	s.Equal(0, Result{}.FillRate())
	s.Equal(0, Result{Total: 0, Filled: 0}.FillRate())
	s.Equal(100, Result{Total: 7, Filled: 7}.FillRate())
	s.Equal(33, Result{Total: 3, Filled: 1}.FillRate())
	s.Equal(67, Result{Total: 3, Filled: 2}.FillRate())
}

func (s *FillerSuite) TestPreviewMatchesFillResolution() {
	fields := textFields("applicant_given_names", "applicant_surname", "poa_date", "case_reference")
	rec := masterdata.Record{
		"applicant_first_name": "Jan",
		"case_reference":       "KB-2026-0042",
	}
	desc, _ := mapping.Lookup("poa-adult")

	fillEngine := &fakeEngine{fields: fields}
	_, fillRes, err := s.newFiller(fillEngine).Fill(s.ctx, []byte("tpl"), desc, rec)
	s.Require().NoError(err)

	previewEngine := &fakeEngine{fields: fields}
	previews, prevRes, err := s.newFiller(previewEngine).Preview(s.ctx, []byte("tpl"), desc, rec)
	s.Require().NoError(err)

	s.Equal(fillRes, prevRes, "preview and fill must report identical statistics")
	s.Empty(previewEngine.writes, "preview never mutates the template")

	byName := make(map[string]FieldPreview, len(previews))
	for _, p := range previews {
		byName[p.Name] = p
	}

	s.Equal(SourceMapping, byName["applicant_given_names"].Source)
	s.Equal("Jan", byName["applicant_given_names"].Value)
	s.Equal(SourceRecord, byName["case_reference"].Source)
	s.Equal(SourceAuto, byName["poa_date"].Source)
	s.Equal(SourceNone, byName["applicant_surname"].Source)
	s.False(byName["applicant_surname"].Filled)
	s.True(byName["applicant_surname"].Required, "missing required input is flagged")
}
