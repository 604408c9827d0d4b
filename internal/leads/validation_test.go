package leads

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		input  LeadInput
		fields []string
	}{
		{
			name:  "valid minimal",
			input: LeadInput{Name: "Ana", Company: "Acme"},
		},
		{
			name: "valid full",
			input: LeadInput{
				Name:        "Carlos Martínez",
				Company:     "Tech Solutions SA",
				LinkedInURL: "https://www.linkedin.com/in/carlosmartinez",
				Email:       "carlos@techsolutions.com",
				Phone:       "+34 612 345 678",
				Status:      StatusNew,
			},
		},
		{
			name:   "short name only",
			input:  LeadInput{Name: "A", Company: "Acme Corp"},
			fields: []string{"name"},
		},
		{
			name:   "bad email only",
			input:  LeadInput{Name: "Ana", Company: "Acme", Email: "not-an-email"},
			fields: []string{"email"},
		},
		{
			name:   "whitespace counts as empty",
			input:  LeadInput{Name: "   ", Company: " B "},
			fields: []string{"company", "name"},
		},
		{
			name: "all checks run",
			input: LeadInput{
				Name:        "",
				Company:     "X",
				LinkedInURL: "https://twitter.com/ana",
				Email:       "ana@acme",
				Phone:       "12-34",
				Status:      Status("archived"),
			},
			fields: []string{"company", "email", "linkedinUrl", "name", "phone", "status"},
		},
		{
			name:   "phone with letters",
			input:  LeadInput{Name: "Ana", Company: "Acme", Phone: "+34 612 ABC 678"},
			fields: []string{"phone"},
		},
		{
			name:  "http linkedin without www",
			input: LeadInput{Name: "Ana", Company: "Acme", LinkedInURL: "http://linkedin.com/in/ana"},
		},
		{
			name:  "blank optionals are skipped",
			input: LeadInput{Name: "Ana", Company: "Acme", Email: "  ", Phone: " ", LinkedInURL: ""},
		},
		{
			name:  "two multibyte characters",
			input: LeadInput{Name: "Ñó", Company: "Acme"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.input)
			if len(tt.fields) == 0 {
				assert.Empty(t, errs)
				assert.NoError(t, errs.Err())
				return
			}
			assert.Equal(t, tt.fields, errs.Fields())
			err := errs.Err()
			assert.True(t, errors.Is(err, ErrValidation))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, errs, verr.Fields)
		})
	}
}

func TestValidateMessages(t *testing.T) {
	errs := Validate(LeadInput{Name: "", Company: "A"})
	assert.Equal(t, "is required", errs["name"])
	assert.Equal(t, "must be at least 2 characters", errs["company"])
}

func TestValidatePatch(t *testing.T) {
	existing := Lead{ID: "1", Name: "Ana", Company: "Acme", Status: StatusNew}

	assert.Empty(t, ValidatePatch(existing, LeadPatch{Email: strPtr("ana@acme.io")}))

	errs := ValidatePatch(existing, LeadPatch{Company: strPtr("A")})
	assert.Equal(t, []string{"company"}, errs.Fields())

	bad := Status("archived")
	errs = ValidatePatch(existing, LeadPatch{Status: &bad})
	assert.Equal(t, []string{"status"}, errs.Fields())

	// Full-record patches built from an input with no status leave status alone.
	assert.Empty(t, ValidatePatch(existing, PatchFrom(LeadInput{Name: "Ana", Company: "Acme"})))
}

func TestValidatorCustomRule(t *testing.T) {
	v := NewValidator()
	require.NoError(t, v.RegisterValidation("not_acme", func(fl validator.FieldLevel) bool {
		return fl.Field().String() != "Acme"
	}))

	type form struct {
		Company string `json:"company" validate:"not_acme"`
	}
	errs := v.Struct(form{Company: "Acme"})
	assert.Equal(t, "is invalid", errs["company"])
	assert.Empty(t, v.Struct(form{Company: "Globex"}))
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus(" Contacted ")
	require.NoError(t, err)
	assert.Equal(t, StatusContacted, got)

	_, err = ParseStatus("archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUniqueTags(t *testing.T) {
	assert.Equal(t, []string{"CEO", "ceo", "B2B"}, UniqueTags([]string{"CEO", " ceo", "CEO", "", "B2B "}))
	assert.Empty(t, UniqueTags(nil))
}
