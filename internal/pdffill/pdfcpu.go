package pdffill

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/form"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// attestationFont renders attester-supplied values; size 0 lets the viewer
// auto-fit long names into narrow fields.
const attestationFont = "Helvetica-Bold"

// PDFCPUEngine implements Engine on top of pdfcpu's AcroForm support.
type PDFCPUEngine struct {
	conf *model.Configuration
}

func NewPDFCPUEngine() *PDFCPUEngine {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFCPUEngine{conf: conf}
}

func (e *PDFCPUEngine) Fields(_ context.Context, template []byte) ([]FormField, error) {
	fields, err := api.FormFields(bytes.NewReader(template), e.conf)
	if err != nil {
		return nil, fmt.Errorf("enumerate form fields: %w", err)
	}

	out := make([]FormField, 0, len(fields))
	for _, f := range fields {
		name := f.Name
		if name == "" {
			name = f.ID
		}
		out = append(out, FormField{Name: name, Type: fieldType(f.Typ)})
	}
	return out, nil
}

func fieldType(t form.FieldType) FieldType {
	switch t {
	case form.FTText:
		return FieldText
	case form.FTCheckBox:
		return FieldCheckBox
	default:
		return FieldOther
	}
}

// pdfcpu form-fill JSON shapes. Only the members we set are emitted; pdfcpu
// ignores fields it does not know.
type fillFont struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type fillTextField struct {
	Name   string    `json:"name"`
	Value  string    `json:"value"`
	Locked bool      `json:"locked"`
	Font   *fillFont `json:"font,omitempty"`
}

type fillCheckBox struct {
	Name   string `json:"name"`
	Value  bool   `json:"value"`
	Locked bool   `json:"locked"`
}

type fillForm struct {
	TextFields []fillTextField `json:"textfield,omitempty"`
	CheckBoxes []fillCheckBox  `json:"checkbox,omitempty"`
}

type fillDocument struct {
	Forms []fillForm `json:"forms"`
}

func (e *PDFCPUEngine) Fill(_ context.Context, template []byte, values []FieldValue) ([]byte, error) {
	if len(values) == 0 {
		return template, nil
	}

	var f fillForm
	for _, v := range values {
		switch v.Type {
		case FieldText:
			tf := fillTextField{Name: v.Name, Value: v.Value}
			if v.Bold {
				tf.Font = &fillFont{Name: attestationFont, Size: 0}
			}
			f.TextFields = append(f.TextFields, tf)
		case FieldCheckBox:
			f.CheckBoxes = append(f.CheckBoxes, fillCheckBox{Name: v.Name, Value: v.Checked})
		}
	}

	payload, err := json.Marshal(fillDocument{Forms: []fillForm{f}})
	if err != nil {
		return nil, fmt.Errorf("encode form data: %w", err)
	}

	var buf bytes.Buffer
	if err := api.FillForm(bytes.NewReader(template), bytes.NewReader(payload), &buf, e.conf); err != nil {
		return nil, fmt.Errorf("fill form: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFCPUEngine) Lock(_ context.Context, doc []byte) ([]byte, error) {
	var buf bytes.Buffer
	// nil field IDs lock every field.
	if err := api.LockFormFields(bytes.NewReader(doc), &buf, nil, e.conf); err != nil {
		return nil, fmt.Errorf("lock form fields: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFCPUEngine) Merge(_ context.Context, docs [][]byte) ([]byte, error) {
	if len(docs) == 1 {
		return docs[0], nil
	}

	readers := make([]io.ReadSeeker, len(docs))
	for i, d := range docs {
		readers[i] = bytes.NewReader(d)
	}

	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, e.conf); err != nil {
		return nil, fmt.Errorf("merge documents: %w", err)
	}
	return buf.Bytes(), nil
}
