package leads

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
)

// csvColumns is the export column order; import accepts any order.
var csvColumns = []string{
	"name", "company", "position", "linkedinUrl", "email", "phone",
	"status", "tags", "notes", "createdAt", "updatedAt", "lastContactDate",
}

const tagSeparator = ";"

// RowError describes a rejected CSV row. Line is 1-based and counts the header.
type RowError struct {
	Line   int
	Fields FieldErrors
	Err    error
}

func (e RowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, &ValidationError{Fields: e.Fields})
}

// ImportCSV parses lead candidates from r. The header names columns by their
// JSON field name, case-insensitively; unknown columns are ignored. Tags are
// separated by ";". Phones are normalized to E.164 using defaultRegion for
// numbers without a country code. Rows that fail validation are reported and
// skipped.
func ImportCSV(r io.Reader, defaultRegion string) ([]LeadInput, []RowError) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, []RowError{{Line: 1, Err: fmt.Errorf("leads: read csv header: %w", err)}}
	}

	index := columnIndex(header)
	var missing []string
	for _, required := range []string{"name", "company"} {
		if _, ok := index[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, []RowError{{Line: 1, Err: fmt.Errorf("leads: csv header missing columns: %s", strings.Join(missing, ", "))}}
	}

	var (
		inputs  []LeadInput
		rowErrs []RowError
		line    = 1
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		if blankRecord(record) {
			continue
		}

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		in := LeadInput{
			Name:        get("name"),
			Company:     get("company"),
			Position:    get("position"),
			LinkedInURL: get("linkedinurl"),
			Email:       get("email"),
			Phone:       NormalizePhone(get("phone"), defaultRegion),
			Notes:       get("notes"),
			Status:      StatusNew,
			Tags:        UniqueTags(strings.Split(get("tags"), tagSeparator)),
		}
		if raw := get("status"); raw != "" {
			status, err := ParseStatus(raw)
			if err != nil {
				rowErrs = append(rowErrs, RowError{Line: line, Fields: FieldErrors{"status": "is not a valid status"}})
				continue
			}
			in.Status = status
		}

		if fieldErrs := Validate(in); len(fieldErrs) > 0 {
			rowErrs = append(rowErrs, RowError{Line: line, Fields: fieldErrs})
			continue
		}
		inputs = append(inputs, in)
	}
	return inputs, rowErrs
}

// ExportCSV writes leads with a header row in the column order ImportCSV reads.
func ExportCSV(w io.Writer, leads []Lead) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvColumns); err != nil {
		return fmt.Errorf("leads: write csv header: %w", err)
	}
	for _, lead := range leads {
		lastContact := ""
		if lead.LastContactDate != nil {
			lastContact = lead.LastContactDate.Format(time.RFC3339)
		}
		record := []string{
			lead.Name,
			lead.Company,
			lead.Position,
			lead.LinkedInURL,
			lead.Email,
			lead.Phone,
			string(lead.Status),
			strings.Join(lead.Tags, tagSeparator),
			lead.Notes,
			lead.CreatedAt.Format(time.RFC3339),
			lead.UpdatedAt.Format(time.RFC3339),
			lastContact,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("leads: write csv row %s: %w", lead.ID, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("leads: flush csv: %w", err)
	}
	return nil
}

// NormalizePhone formats a phone number to E.164. Blank input stays blank and
// numbers that cannot be parsed or are not valid are returned trimmed.
func NormalizePhone(input, defaultRegion string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, strings.ToUpper(defaultRegion))
	if err != nil {
		return trimmed
	}
	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

func columnIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, col := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	return index
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
