// Package campaigns manages outreach campaigns: their model, a persisted
// store mirroring the lead store, and the summary shown on the campaigns page.
package campaigns

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/wolfman30/prospector/internal/leads"
)

// Status is the lifecycle stage of a campaign.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

var statuses = []Status{StatusDraft, StatusActive, StatusPaused, StatusCompleted}

var (
	// ErrCampaignNotFound is returned when a campaign is not found
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrNotPersisted is returned when the change was applied in memory but could not be saved
	ErrNotPersisted = errors.New("campaign change not persisted")

	// ErrInvalidStatus is returned for unknown status strings
	ErrInvalidStatus = errors.New("invalid campaign status")
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range statuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !parsed.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	*s = parsed
	return nil
}

// Campaign is a named outreach initiative.
type Campaign struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Objective    string    `json:"objective,omitempty"`
	Status       Status    `json:"status"`
	LeadsCount   int       `json:"leadsCount"`
	MessagesSent int       `json:"messagesSent"`
	ResponseRate float64   `json:"responseRate"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Input holds the editable fields of a campaign.
type Input struct {
	Name         string  `json:"name" validate:"required_trimmed,min_trimmed=2"`
	Description  string  `json:"description"`
	Objective    string  `json:"objective"`
	Status       Status  `json:"status" validate:"campaign_status"`
	LeadsCount   int     `json:"leadsCount" validate:"gte=0"`
	MessagesSent int     `json:"messagesSent" validate:"gte=0"`
	ResponseRate float64 `json:"responseRate" validate:"gte=0,lte=100"`
}

var campaignValidator = func() *leads.Validator {
	v := leads.NewValidator()
	if err := v.RegisterValidation("campaign_status", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		return raw == "" || Status(raw).Valid()
	}); err != nil {
		panic("campaigns: register validation: " + err.Error())
	}
	return v
}()

// Validate checks every rule and returns the complete field error map.
func Validate(in Input) leads.FieldErrors {
	return campaignValidator.Struct(in)
}

// Summary aggregates the campaigns page header.
type Summary struct {
	Total           int     `json:"total"`
	Active          int     `json:"active"`
	LeadsTotal      int     `json:"leadsTotal"`
	MessagesSent    int     `json:"messagesSent"`
	AvgResponseRate float64 `json:"avgResponseRate"`
}

// Summarize totals cs. The average response rate is rounded to one decimal
// and is 0 when there are no campaigns.
func Summarize(cs []Campaign) Summary {
	var s Summary
	var rateSum float64
	for _, c := range cs {
		s.Total++
		if c.Status == StatusActive {
			s.Active++
		}
		s.LeadsTotal += c.LeadsCount
		s.MessagesSent += c.MessagesSent
		rateSum += c.ResponseRate
	}
	if s.Total > 0 {
		s.AvgResponseRate = math.Round(rateSum/float64(s.Total)*10) / 10
	}
	return s
}
