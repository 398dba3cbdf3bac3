package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sujalbistaa/pinboard/internal/models"
)

// Limits, counted in characters after trimming.
const (
	MaxTitleLength  = 200
	MaxSearchLength = 100
)

// User-facing messages.
const (
	MsgTitleRequired   = "Title is required"
	MsgContentRequired = "Content is required"
	MsgTitleEmpty      = "Title cannot be empty"
	MsgContentEmpty    = "Content cannot be empty"
	MsgTitleTooLong    = "Title must be 200 characters or less"
	MsgSearchTooLong   = "Search term must be 100 characters or less"

	MsgLoadFailed   = "Failed to load posts. Make sure the backend server is running."
	MsgCreateFailed = "Failed to create post"
	MsgUpdateFailed = "Failed to update post"
	MsgDeleteFailed = "Failed to delete post"
	MsgConfirm      = "Are you sure you want to delete this post?"
	MsgEmpty        = "No posts yet. Create the first one!"
	MsgLoading      = "Loading posts..."
)

// FieldErrors holds the inline message per form field. Empty means valid.
type FieldErrors struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

// Any reports whether at least one field failed.
func (e FieldErrors) Any() bool {
	return e.Title != "" || e.Content != ""
}

type requiredMessages struct {
	title   string
	content string
}

// validate checks trimmed input against the validate tags of
// models.PostInput. Its max rule counts characters, not bytes.
var validate = validator.New()

var searchRule = fmt.Sprintf("max=%d", MaxSearchLength)

var (
	createRules = requiredMessages{title: MsgTitleRequired, content: MsgContentRequired}
	editRules   = requiredMessages{title: MsgTitleEmpty, content: MsgContentEmpty}
)

// ValidateCreate checks a new post. The returned input is trimmed.
func ValidateCreate(title, content string) (models.PostInput, FieldErrors) {
	return validatePost(title, content, createRules)
}

// ValidateEdit checks an edited post. The returned input is trimmed.
func ValidateEdit(title, content string) (models.PostInput, FieldErrors) {
	return validatePost(title, content, editRules)
}

func validatePost(title, content string, rules requiredMessages) (models.PostInput, FieldErrors) {
	in := models.PostInput{
		Title:   strings.TrimSpace(title),
		Content: strings.TrimSpace(content),
	}
	var errs FieldErrors
	var verrs validator.ValidationErrors
	if !errors.As(validate.Struct(in), &verrs) {
		return in, errs
	}
	for _, fe := range verrs {
		switch fe.Field() {
		case "Title":
			errs.Title = fieldMessage(fe.Tag(), rules.title, MsgTitleTooLong)
		case "Content":
			errs.Content = fieldMessage(fe.Tag(), rules.content, "")
		}
	}
	return in, errs
}

// fieldMessage maps a failed rule to its user-facing text.
func fieldMessage(tag, required, tooLong string) string {
	switch tag {
	case "max":
		return tooLong
	default:
		return required
	}
}

// ValidateSearch trims term and checks its length. The message is empty
// when the term is acceptable.
func ValidateSearch(term string) (string, string) {
	trimmed := strings.TrimSpace(term)
	if err := validate.Var(trimmed, searchRule); err != nil {
		return trimmed, MsgSearchTooLong
	}
	return trimmed, ""
}
