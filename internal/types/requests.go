package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// ApplicationRequest is the body of a create or update request.
type ApplicationRequest struct {
	ID           string    `json:"id,omitempty" validate:"omitempty,max=200,excludesall=/?#"`
	Company      string    `json:"company" validate:"required,max=200"`
	Emoji        string    `json:"emoji,omitempty"`
	CurrentStage Stage     `json:"currentStage" validate:"required"`
	RoundType    RoundType `json:"roundType,omitempty"`
	Position     string    `json:"position,omitempty"`
	Team         string    `json:"team,omitempty"`
	AppliedDate  string    `json:"appliedDate,omitempty"`
	OfferedDate  string    `json:"offeredDate,omitempty"`
	DueDate      string    `json:"dueDate,omitempty"`
	FinalVerdict Verdict   `json:"finalVerdict,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}

// Validate validates the ApplicationRequest using the validator.
func (r *ApplicationRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Application converts the request into a record with the given id.
// Company and stage are trimmed; everything else is kept as sent.
func (r *ApplicationRequest) Application(id string) Application {
	return Application{
		ID:           id,
		Company:      strings.TrimSpace(r.Company),
		Emoji:        r.Emoji,
		CurrentStage: Stage(strings.TrimSpace(string(r.CurrentStage))),
		RoundType:    r.RoundType,
		Position:     r.Position,
		Team:         r.Team,
		AppliedDate:  r.AppliedDate,
		OfferedDate:  r.OfferedDate,
		DueDate:      r.DueDate,
		FinalVerdict: r.FinalVerdict,
		Notes:        r.Notes,
	}
}

// ConnectRequest carries a token obtained by the caller, for example a
// browser that ran the consent popup itself.
type ConnectRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
	ExpiresIn   int    `json:"expires_in,omitempty" validate:"gte=0"`
}

// Validate validates the ConnectRequest using the validator.
func (r *ConnectRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
