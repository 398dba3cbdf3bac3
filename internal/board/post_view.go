package board

import (
	"github.com/sujalbistaa/pinboard/internal/models"
)

// PostView is the per-post card state.
type PostView struct {
	Post       models.Post `json:"post"`
	Editing    bool        `json:"editing"`
	Title      string      `json:"title"`
	Content    string      `json:"content"`
	Errors     FieldErrors `json:"errors"`
	Saving     bool        `json:"saving"`
	Confirming bool        `json:"confirming"`
	Deleting   bool        `json:"deleting"`
}

// NewPostView returns a card in view state.
func NewPostView(p models.Post) *PostView {
	return &PostView{Post: p, Title: p.Title, Content: p.Content}
}

// Sync replaces the last-known post after a re-fetch. Edit fields in
// progress are kept.
func (v *PostView) Sync(p models.Post) {
	v.Post = p
	if !v.Editing {
		v.Title, v.Content = p.Title, p.Content
	}
}

// Edit enters edit state with the fields pre-populated from the post.
func (v *PostView) Edit() {
	if v.Editing {
		return
	}
	v.Editing = true
	v.Title, v.Content = v.Post.Title, v.Post.Content
	v.Errors = FieldErrors{}
}

// CancelEdit restores the fields to the last-known post and leaves edit
// state.
func (v *PostView) CancelEdit() {
	if v.Saving {
		return
	}
	v.Editing = false
	v.Title, v.Content = v.Post.Title, v.Post.Content
	v.Errors = FieldErrors{}
}

// BeginSave validates the edited fields and marks the card as saving.
func (v *PostView) BeginSave(title, content string) (models.PostInput, bool) {
	if !v.Editing || v.Saving {
		return models.PostInput{}, false
	}
	v.Title, v.Content = title, content
	in, errs := ValidateEdit(title, content)
	v.Errors = errs
	if errs.Any() {
		return models.PostInput{}, false
	}
	v.Saving = true
	return in, true
}

// FinishSave leaves edit state on success and stays in it on failure.
func (v *PostView) FinishSave(err error) {
	v.Saving = false
	if err != nil {
		return
	}
	v.Editing = false
	v.Errors = FieldErrors{}
}

// RequestDelete opens the delete confirmation.
func (v *PostView) RequestDelete() bool {
	if v.Deleting {
		return false
	}
	v.Confirming = true
	return true
}

// AnswerDelete closes the confirmation. It reports true when the delete
// request should be sent.
func (v *PostView) AnswerDelete(yes bool) bool {
	if !v.Confirming {
		return false
	}
	v.Confirming = false
	if !yes || v.Deleting {
		return false
	}
	v.Deleting = true
	return true
}

// FinishDelete re-enables the delete control when the request failed.
func (v *PostView) FinishDelete(err error) {
	if err != nil {
		v.Deleting = false
	}
}
