package models

import (
	"strings"
	"unicode/utf8"

	dErrors "covault/pkg/domain-errors"
)

const (
	MaxNameLength        = 80
	MaxDescriptionLength = 200
)

// CreateVaultForm is the input to vault creation. Nil settings mean defaults.
type CreateVaultForm struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Category    Category  `json:"category,omitempty"`
	Nickname    string    `json:"nickname,omitempty"`
	Settings    *Settings `json:"settings,omitempty"`
}

// NewCreateVaultForm returns a form whose settings start at DefaultSettings.
// Decoding a partial settings object into it overrides only the fields the
// client sent.
func NewCreateVaultForm() CreateVaultForm {
	s := DefaultSettings()
	return CreateVaultForm{Settings: &s}
}

// Normalize trims text fields and fills defaults.
func (f *CreateVaultForm) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	f.Icon = strings.TrimSpace(f.Icon)
	f.Nickname = strings.TrimSpace(f.Nickname)
	if f.Category == "" {
		f.Category = CategoryGeneral
	}
	if f.Settings == nil {
		s := DefaultSettings()
		f.Settings = &s
	}
}

// Validate expects a normalized form.
func (f *CreateVaultForm) Validate() error {
	if f.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if utf8.RuneCountInString(f.Name) > MaxNameLength {
		return dErrors.Newf(dErrors.CodeValidation, "name must be at most %d characters", MaxNameLength)
	}
	if utf8.RuneCountInString(f.Description) > MaxDescriptionLength {
		return dErrors.Newf(dErrors.CodeValidation, "description must be at most %d characters", MaxDescriptionLength)
	}
	if !f.Category.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown category %q", f.Category)
	}
	if f.Settings != nil {
		return f.Settings.Validate()
	}
	return nil
}
