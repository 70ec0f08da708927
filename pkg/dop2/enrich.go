// Copyright 2025 Alexander Kappner.

package dop2

// FieldOutcome is the result of attempting to decode and add one schema
// field to an enrichment summary: either it was added, or it was skipped
// with a stated reason. This replaces a catch-all "decode and swallow any
// exception" pattern with an explicit, inspectable outcome per field --
// a caller that wants to know why a field is missing from a summary can
// read it off the outcome instead of having the skip happen silently.
type FieldOutcome struct {
	Field  string
	Added  bool
	Reason string
	Value  interface{}
}

// EnrichSummary decodes every field of schema against records and reports,
// per field, whether it was added to the summary or skipped and why.
// A missing field is reported skipped while the present fields are still
// added. A present field that fails to decode fails the whole Decode, and
// then every field of the schema is reported skipped with that error.
func EnrichSummary(records []Record, schema Schema) []FieldOutcome {
	decoded, err := Decode(records, schema)
	if err != nil {
		outcomes := make([]FieldOutcome, len(schema))
		for i, f := range schema {
			outcomes[i] = FieldOutcome{Field: f.Name, Reason: err.Error()}
		}
		return outcomes
	}

	outcomes := make([]FieldOutcome, 0, len(schema))
	for _, f := range schema {
		fv, ok := decoded.Fields[f.Name]
		switch {
		case !ok:
			outcomes = append(outcomes, FieldOutcome{Field: f.Name, Reason: "field not present in schema output"})
		case !fv.Present:
			outcomes = append(outcomes, FieldOutcome{Field: f.Name, Reason: "leaf did not carry a record for this field"})
		default:
			outcomes = append(outcomes, FieldOutcome{Field: f.Name, Added: true, Value: fv.Value})
		}
	}
	return outcomes
}
