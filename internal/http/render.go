package http

import (
	"embed"
	"html/template"
	"time"

	"github.com/sujalbistaa/pinboard/internal/board"
	"github.com/sujalbistaa/pinboard/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("").ParseFS(templateFS, "templates/*.tmpl")
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type createView struct {
	Open       bool
	Title      string
	Content    string
	Errors     board.FieldErrors
	Submitting bool
}

type cardView struct {
	ID         int64
	Title      string
	Content    string
	Posted     string
	Updated    string
	Editing    bool
	EditTitle  string
	EditBody   string
	Errors     board.FieldErrors
	Saving     bool
	Confirming bool
	Deleting   bool
}

type pageData struct {
	Loading     bool
	Error       string
	Empty       bool
	Notice      string
	Search      string
	SearchError string
	SortFields  []option
	SortOrders  []option
	Create      createView
	Cards       []cardView
	Confirm     *confirmView
	LiveUpdates bool

	LoadingText string
	EmptyText   string
}

type confirmView struct {
	Message string
	Card    cardView
}

// buildPage projects b into template data. It consumes the notice.
func buildPage(b *board.Board, loc *time.Location, live bool) pageData {
	p := pageData{
		Loading:     b.Shell.ShowLoading(),
		Error:       b.Shell.Error,
		Empty:       b.Shell.ShowEmpty(),
		Search:      b.Shell.Search,
		SearchError: b.Shell.SearchError,
		SortFields: options(b.Shell.SortBy,
			option{Value: models.SortByCreatedAt, Label: "Date posted"},
			option{Value: models.SortByTitle, Label: "Title"},
		),
		SortOrders: options(string(b.Shell.SortOrder),
			option{Value: string(models.SortDesc), Label: "Newest first"},
			option{Value: string(models.SortAsc), Label: "Oldest first"},
		),
		Create: createView{
			Open:       b.Create.Open,
			Title:      b.Create.Title,
			Content:    b.Create.Content,
			Errors:     b.Create.Errors,
			Submitting: b.Create.Submitting,
		},
		LiveUpdates: live,
		LoadingText: board.MsgLoading,
		EmptyText:   board.MsgEmpty,
	}
	if p.Loading {
		return p
	}
	p.Notice = b.TakeNotice()
	for _, item := range b.Items() {
		cv := newCardView(item, loc)
		p.Cards = append(p.Cards, cv)
		if cv.Confirming {
			p.Confirm = &confirmView{Message: board.MsgConfirm, Card: cv}
		}
	}
	return p
}

func newCardView(item board.Item, loc *time.Location) cardView {
	cv := cardView{
		ID:      item.Post.ID,
		Title:   item.Post.Title,
		Content: item.Post.Content,
		Posted:  board.FormatTime(item.Post.CreatedAt.Time, loc),
	}
	if item.Post.Edited() {
		cv.Updated = board.FormatTime(item.Post.UpdatedAt.Time, loc)
	}
	if card := item.Card; card != nil {
		cv.Editing = card.Editing
		cv.EditTitle = card.Title
		cv.EditBody = card.Content
		cv.Errors = card.Errors
		cv.Saving = card.Saving
		cv.Confirming = card.Confirming
		cv.Deleting = card.Deleting
	}
	return cv
}

func options(current string, opts ...option) []option {
	for i := range opts {
		opts[i].Selected = opts[i].Value == current
	}
	return opts
}
