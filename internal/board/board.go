// Package board holds the view state of the bulletin board: the shell that
// owns the list, the creation form and one card per post. Front ends drive
// it in two phases around each backend call (Begin* under the visitor's
// lock, the call itself outside it, Finish* to apply the result), or use the
// blocking helpers in sync.go.
package board

import (
	"context"

	"github.com/sujalbistaa/pinboard/internal/models"
)

// Lister fetches the post list.
type Lister interface {
	List(ctx context.Context, q models.ListQuery) ([]models.Post, error)
}

// API is the subset of the posts client the board drives.
type API interface {
	Lister
	Create(ctx context.Context, in models.PostInput) (*models.Post, error)
	Update(ctx context.Context, id int64, in models.PostInput) (*models.Post, error)
	Delete(ctx context.Context, id int64) (*models.DeleteResult, error)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// Board is the whole view state of one visitor.
type Board struct {
	Shell  Shell               `json:"shell"`
	Create CreateForm          `json:"create"`
	Cards  map[int64]*PostView `json:"cards"`
	Notice string              `json:"notice,omitempty"`
}

// New returns an unmounted board.
func New() *Board {
	return &Board{Shell: NewShell(), Cards: map[int64]*PostView{}}
}

// Item pairs a post with its card, in list order.
type Item struct {
	Post models.Post
	Card *PostView
}

// Items returns the posts to render, in backend order.
func (b *Board) Items() []Item {
	items := make([]Item, 0, len(b.Shell.Posts))
	for _, p := range b.Shell.Posts {
		items = append(items, Item{Post: p, Card: b.card(p.ID)})
	}
	return items
}

// Card returns the card of post id.
func (b *Board) Card(id int64) (*PostView, bool) {
	v, ok := b.Cards[id]
	return v, ok
}

func (b *Board) card(id int64) *PostView {
	if b.Cards == nil {
		b.Cards = map[int64]*PostView{}
	}
	v, ok := b.Cards[id]
	if !ok {
		for _, p := range b.Shell.Posts {
			if p.ID == id {
				v = NewPostView(p)
				b.Cards[id] = v
				break
			}
		}
	}
	return v
}

// Notify sets the one-shot alert.
func (b *Board) Notify(msg string) {
	b.Notice = msg
}

// TakeNotice returns the alert and clears it.
func (b *Board) TakeNotice() string {
	msg := b.Notice
	b.Notice = ""
	return msg
}

// BeginFetch starts a list request with the active parameters.
func (b *Board) BeginFetch() (int, models.ListQuery) {
	return b.Shell.BeginFetch()
}

// FinishFetch applies a list result and reconciles the cards: state is kept
// for ids still present and dropped for the rest.
func (b *Board) FinishFetch(ticket int, posts []models.Post, err error) {
	if !b.Shell.FinishFetch(ticket, posts, err) {
		return
	}
	next := make(map[int64]*PostView, len(b.Shell.Posts))
	for _, p := range b.Shell.Posts {
		if v, ok := b.Cards[p.ID]; ok {
			v.Sync(p)
			next[p.ID] = v
			continue
		}
		next[p.ID] = NewPostView(p)
	}
	b.Cards = next
}

// BeginCreate validates and starts a create.
func (b *Board) BeginCreate(title, content string) (models.PostInput, bool) {
	return b.Create.BeginSubmit(title, content)
}

// FinishCreate applies a create result and reports whether to re-fetch.
func (b *Board) FinishCreate(err error) bool {
	b.Create.FinishSubmit(err)
	if err != nil {
		b.Notify(MsgCreateFailed)
		return false
	}
	return true
}

// BeginSave validates and starts an update of post id.
func (b *Board) BeginSave(id int64, title, content string) (models.PostInput, bool) {
	v := b.card(id)
	if v == nil {
		return models.PostInput{}, false
	}
	return v.BeginSave(title, content)
}

// FinishSave applies an update result and reports whether to re-fetch.
func (b *Board) FinishSave(id int64, err error) bool {
	v := b.card(id)
	if v != nil {
		v.FinishSave(err)
	}
	if err != nil {
		b.Notify(MsgUpdateFailed)
		return false
	}
	return true
}

// RequestDelete opens the confirmation for post id. At most one
// confirmation is open; any other is closed without deleting.
func (b *Board) RequestDelete(id int64) bool {
	v := b.card(id)
	if v == nil || !v.RequestDelete() {
		return false
	}
	for other, ov := range b.Cards {
		if other != id && ov.Confirming {
			ov.AnswerDelete(false)
		}
	}
	return true
}

// AnswerDelete closes the confirmation and reports whether to send the
// delete.
func (b *Board) AnswerDelete(id int64, yes bool) bool {
	v := b.card(id)
	return v != nil && v.AnswerDelete(yes)
}

// FinishDelete applies a delete result and reports whether to re-fetch.
func (b *Board) FinishDelete(id int64, err error) bool {
	if v := b.card(id); v != nil {
		v.FinishDelete(err)
	}
	if err != nil {
		b.Notify(MsgDeleteFailed)
		return false
	}
	return true
}

// Recover clears in-flight markers left by backend calls that will never
// finish, such as calls cut off by a restart. It reports whether the list
// was left loading, in which case the caller should fetch again.
func (b *Board) Recover() bool {
	b.Create.Submitting = false
	for _, v := range b.Cards {
		v.Saving = false
		v.Deleting = false
	}
	return b.Shell.Loading
}

// Confirming returns the card waiting for a delete answer, if any.
func (b *Board) Confirming() *PostView {
	for _, p := range b.Shell.Posts {
		if v, ok := b.Cards[p.ID]; ok && v.Confirming {
			return v
		}
	}
	return nil
}
