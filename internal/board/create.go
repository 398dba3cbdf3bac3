package board

import (
	"github.com/sujalbistaa/pinboard/internal/models"
)

// CreateForm is the collapsible new-post form.
type CreateForm struct {
	Open       bool        `json:"open"`
	Title      string      `json:"title"`
	Content    string      `json:"content"`
	Errors     FieldErrors `json:"errors"`
	Submitting bool        `json:"submitting"`
}

// Expand shows the form.
func (f *CreateForm) Expand() {
	f.Open = true
}

// Cancel discards the entered values and collapses the form.
func (f *CreateForm) Cancel() {
	if f.Submitting {
		return
	}
	*f = CreateForm{}
}

// BeginSubmit validates title and content. On success it marks the form as
// submitting and returns the trimmed input to send.
func (f *CreateForm) BeginSubmit(title, content string) (models.PostInput, bool) {
	if !f.Open || f.Submitting {
		return models.PostInput{}, false
	}
	f.Title, f.Content = title, content
	in, errs := ValidateCreate(title, content)
	f.Errors = errs
	if errs.Any() {
		return models.PostInput{}, false
	}
	f.Submitting = true
	return in, true
}

// FinishSubmit applies the create result. A successful create resets and
// collapses the form; a failed one keeps the entered values.
func (f *CreateForm) FinishSubmit(err error) {
	f.Submitting = false
	if err != nil {
		return
	}
	*f = CreateForm{}
}
