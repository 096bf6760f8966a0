package mapping

// table is the build-time form of a descriptor: pure data, compiled into the
// registry at package init. These tables are the single source of truth for
// both generation and preview.
type table struct {
	Kind        Kind
	Filename    string
	Fields      map[string]string
	Required    []string
	Attestation bool
	DateField   string
	NAPolicy    bool
}

var tables = []table{
	{
		Kind:        KindPOAAdult,
		Filename:    "pelnomocnictwo-dorosly.pdf",
		Attestation: true,
		DateField:   "poa_date",
		Fields: map[string]string{
			"applicant_given_names": "applicant_first_name",
			"applicant_surname":     "applicant_last_name",
			"applicant_full_name":   "applicant_first_name|applicant_last_name",
			"applicant_passport_no": "applicant_passport_number",
			"applicant_dob":         "applicant_dob",
			"applicant_pob":         "applicant_pob",
			"applicant_city":        "applicant_address.city",
			"applicant_street":      "applicant_address.street",
			"poa_date":              "poa_date_filed",
		},
		Required: []string{"applicant_first_name", "applicant_last_name", "applicant_passport_number"},
	},
	{
		Kind:        KindPOAMinor,
		Filename:    "pelnomocnictwo-maloletni.pdf",
		Attestation: true,
		DateField:   "poa_date",
		Fields: map[string]string{
			"parent_full_name":   "applicant_first_name|applicant_last_name",
			"parent_passport_no": "applicant_passport_number",
			"child_given_names":  "child_{n}_first_name",
			"child_surname":      "child_{n}_last_name",
			"child_full_name":    "child_{n}_first_name|child_{n}_last_name",
			"child_dob":          "child_{n}_dob",
			"poa_date":           "poa_date_filed",
		},
		Required: []string{"applicant_first_name", "applicant_last_name"},
	},
	{
		Kind:        KindPOASpouses,
		Filename:    "pelnomocnictwo-malzonkowie.pdf",
		Attestation: true,
		DateField:   "poa_date",
		Fields: map[string]string{
			"applicant_full_name":   "applicant_first_name|applicant_last_name",
			"applicant_passport_no": "applicant_passport_number",
			"spouse_given_names":    "spouse_first_name",
			"spouse_surname":        "spouse_last_name",
			"spouse_full_name":      "spouse_first_name|spouse_last_name",
			"spouse_passport_no":    "spouse_passport_number",
			"poa_date":              "poa_date_filed",
		},
		Required: []string{"applicant_first_name", "applicant_last_name", "spouse_first_name", "spouse_last_name"},
	},
	{
		// The combined bundle has no fields of its own; the assembler fills
		// the adult, minor, and spouses tables independently.
		Kind:        KindPOACombined,
		Filename:    "",
		Attestation: true,
		Fields:      map[string]string{},
	},
	{
		Kind:      KindCitizenship,
		Filename:  "wniosek-obywatelstwo.pdf",
		DateField: "application_date",
		NAPolicy:  true,
		Fields: map[string]string{
			"applicant_given_names": "applicant_first_name",
			"applicant_surname":     "applicant_last_name",
			"applicant_maiden_name": "applicant_maiden_name",
			"applicant_dob_day":     "applicant_dob.day",
			"applicant_dob_month":   "applicant_dob.month",
			"applicant_dob_year":    "applicant_dob.year",
			"applicant_pob":         "applicant_pob",

			"father_full_name": "father_first_name|father_last_name",
			"father_dob":       "father_dob",
			"father_pob":       "father_pob",
			"father_is_polish": "@checked_if:father_is_polish",

			"mother_full_name":   "mother_first_name|mother_last_name",
			"mother_maiden_name": "mother_maiden_name",
			"mother_dob":         "mother_dob",
			"mother_pob":         "mother_pob",
			"mother_is_polish":   "@checked_if:mother_is_polish",

			"pgf_full_name": "pgf_first_name|pgf_last_name",
			"pgf_dob":       "pgf_dob",
			"pgf_pob":       "pgf_pob",
			"pgm_full_name": "pgm_first_name|pgm_last_name",
			"pgm_dob":       "pgm_dob",
			"pgm_pob":       "pgm_pob",

			"mgf_full_name": "mgf_first_name|mgf_last_name",
			"mgf_dob":       "mgf_dob",
			"mgf_pob":       "mgf_pob",
			"mgm_full_name": "mgm_first_name|mgm_last_name",
			"mgm_dob":       "mgm_dob",
			"mgm_pob":       "mgm_pob",

			"has_birth_certificate": "@checked_if:applicant_has_birth_cert",
			"declaration_of_truth":  "@checked",
			"application_date":      "application_date_filed",
		},
		Required: []string{"applicant_first_name", "applicant_last_name", "applicant_dob"},
	},
	{
		Kind:     KindFamilyTree,
		Filename: "drzewo-genealogiczne.pdf",
		Fields: map[string]string{
			"applicant_full_name": "applicant_first_name|applicant_last_name",
			"applicant_dob":       "applicant_dob",
			"applicant_pob":       "applicant_pob",

			"father_full_name": "father_first_name|father_last_name",
			"father_dob":       "father_dob",
			"mother_full_name": "mother_first_name|mother_last_name",
			"mother_dob":       "mother_dob",

			"pgf_full_name": "pgf_first_name|pgf_last_name",
			"pgm_full_name": "pgm_first_name|pgm_last_name",
			"mgf_full_name": "mgf_first_name|mgf_last_name",
			"mgm_full_name": "mgm_first_name|mgm_last_name",

			"pggf_full_name": "pggf_first_name|pggf_last_name",
			"pggm_full_name": "pggm_first_name|pggm_last_name",
			"mggf_full_name": "mggf_first_name|mggf_last_name",
			"mggm_full_name": "mggm_first_name|mggm_last_name",
		},
		Required: []string{"applicant_first_name", "applicant_last_name"},
	},
	{
		Kind:      KindTranscription,
		Filename:  "wniosek-transkrypcja.pdf",
		DateField: "application_date",
		Fields: map[string]string{
			"registry_office":      "@const:Urząd Stanu Cywilnego m.st. Warszawy",
			"applicant_full_name":  "applicant_first_name|applicant_last_name",
			"applicant_dob_day":    "applicant_dob.day",
			"applicant_dob_month":  "applicant_dob.month",
			"applicant_dob_year":   "applicant_dob.year",
			"applicant_pob":        "applicant_pob",
			"event_act_number":     "event_act_number",
			"event_country":        "event_country",
			"has_foreign_act_copy": "@checked_if:has_foreign_act_copy",
			"application_date":     "application_date_filed",
		},
		Required: []string{"applicant_first_name", "applicant_last_name"},
	},
}

// Ancestral-line prefixes used by the citizenship placeholder policy.
var (
	paternalPrefixes = []string{"father_", "pgf_", "pgm_"}
	maternalPrefixes = []string{"mother_", "mgf_", "mgm_"}
)

// Line labels one qualifying ancestral line.
type Line int

const (
	LineNone Line = iota
	LinePaternal
	LineMaternal
)

// LineOf classifies an expression by the ancestral line of the record fields
// it reads. A field belongs to a line only when every referenced key carries
// that line's prefixes; mixed or unrelated fields classify as LineNone.
func LineOf(e Expr) Line {
	refs := e.Refs()
	if len(refs) == 0 {
		return LineNone
	}
	if allPrefixed(refs, paternalPrefixes) {
		return LinePaternal
	}
	if allPrefixed(refs, maternalPrefixes) {
		return LineMaternal
	}
	return LineNone
}

func allPrefixed(refs []string, prefixes []string) bool {
	for _, ref := range refs {
		matched := false
		for _, p := range prefixes {
			if len(ref) > len(p) && ref[:len(p)] == p {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
