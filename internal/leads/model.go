package leads

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is the stage of a lead within the outreach pipeline.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusResponded Status = "responded"
	StatusQualified Status = "qualified"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
)

// Statuses lists every status in pipeline order.
var Statuses = []Status{
	StatusNew,
	StatusContacted,
	StatusResponded,
	StatusQualified,
	StatusConverted,
	StatusLost,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus accepts any casing and surrounding whitespace.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// triggersContact reports whether moving into s stamps lastContactDate.
func (s Status) triggersContact() bool {
	return s == StatusContacted || s == StatusResponded
}

// Lead is a prospect contact record.
type Lead struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Company         string     `json:"company"`
	Position        string     `json:"position,omitempty"`
	LinkedInURL     string     `json:"linkedinUrl,omitempty"`
	Email           string     `json:"email,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	Status          Status     `json:"status"`
	Tags            []string   `json:"tags"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	LastContactDate *time.Time `json:"lastContactDate,omitempty"`
}

// Clone returns a deep copy so callers never share tags or timestamps with the store.
func (l Lead) Clone() Lead {
	out := l
	if l.Tags != nil {
		out.Tags = append([]string(nil), l.Tags...)
	}
	if l.LastContactDate != nil {
		ts := *l.LastContactDate
		out.LastContactDate = &ts
	}
	return out
}

// HasTag reports whether the lead carries tag exactly.
func (l Lead) HasTag(tag string) bool {
	for _, t := range l.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// LeadInput is a candidate record for creating a lead.
type LeadInput struct {
	Name        string   `json:"name" validate:"required_trimmed,min_trimmed=2"`
	Company     string   `json:"company" validate:"required_trimmed,min_trimmed=2"`
	Position    string   `json:"position"`
	LinkedInURL string   `json:"linkedinUrl" validate:"linkedin_url"`
	Email       string   `json:"email" validate:"email_shape"`
	Phone       string   `json:"phone" validate:"phone_chars"`
	Notes       string   `json:"notes"`
	Status      Status   `json:"status" validate:"lead_status"`
	Tags        []string `json:"tags"`
}

// Input returns the editable fields of l as a candidate record.
func (l Lead) Input() LeadInput {
	return LeadInput{
		Name:        l.Name,
		Company:     l.Company,
		Position:    l.Position,
		LinkedInURL: l.LinkedInURL,
		Email:       l.Email,
		Phone:       l.Phone,
		Notes:       l.Notes,
		Status:      l.Status,
		Tags:        append([]string(nil), l.Tags...),
	}
}

// LeadPatch holds the fields an update overwrites; nil fields are left as is.
type LeadPatch struct {
	Name        *string   `json:"name,omitempty"`
	Company     *string   `json:"company,omitempty"`
	Position    *string   `json:"position,omitempty"`
	LinkedInURL *string   `json:"linkedinUrl,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// PatchFrom builds a patch that overwrites every editable field with in.
func PatchFrom(in LeadInput) LeadPatch {
	tags := append([]string(nil), in.Tags...)
	status := in.Status
	return LeadPatch{
		Name:        &in.Name,
		Company:     &in.Company,
		Position:    &in.Position,
		LinkedInURL: &in.LinkedInURL,
		Email:       &in.Email,
		Phone:       &in.Phone,
		Notes:       &in.Notes,
		Status:      &status,
		Tags:        &tags,
	}
}

// apply merges the patch over l. It does not touch id or timestamps.
func (p LeadPatch) apply(l *Lead) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Company != nil {
		l.Company = *p.Company
	}
	if p.Position != nil {
		l.Position = *p.Position
	}
	if p.LinkedInURL != nil {
		l.LinkedInURL = *p.LinkedInURL
	}
	if p.Email != nil {
		l.Email = *p.Email
	}
	if p.Phone != nil {
		l.Phone = *p.Phone
	}
	if p.Notes != nil {
		l.Notes = *p.Notes
	}
	if p.Status != nil && p.Status.Valid() {
		l.Status = *p.Status
	}
	if p.Tags != nil {
		l.Tags = UniqueTags(*p.Tags)
	}
}

// UniqueTags trims each tag, drops empties and keeps the first occurrence of
// each distinct value. Matching is case-sensitive.
func UniqueTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
