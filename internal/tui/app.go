// Package tui is the terminal front end of the board. It drives the same
// view state as the web pages through a PromptDriver.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sujalbistaa/pinboard/internal/board"
	"github.com/sujalbistaa/pinboard/internal/models"
)

// Menu entries, in display order.
const (
	ActionSearch    = "Search"
	ActionSortBy    = "Sort by"
	ActionSortOrder = "Sort order"
	ActionCreate    = "Create new post"
	ActionEdit      = "Edit post"
	ActionDelete    = "Delete post"
	ActionRefresh   = "Refresh"
	ActionQuit      = "Quit"
)

var menu = []string{
	ActionSearch, ActionSortBy, ActionSortOrder,
	ActionCreate, ActionEdit, ActionDelete,
	ActionRefresh, ActionQuit,
}

var (
	sortFields = []string{models.SortByCreatedAt, models.SortByTitle}
	sortLabels = []string{"Date posted", "Title"}
	orders     = []models.SortOrder{models.SortDesc, models.SortAsc}
	orderLabel = []string{"Newest first", "Oldest first"}
)

// Option configures the App.
type Option func(*App)

// WithLocation sets the zone timestamps are shown in.
func WithLocation(loc *time.Location) Option {
	return func(a *App) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// WithLogger sets the logger for backend failures.
func WithLogger(logger *zap.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// App is the interactive board loop.
type App struct {
	api    board.API
	driver PromptDriver
	board  *board.Board
	loc    *time.Location
	logger *zap.Logger
}

// New returns an App talking to api through driver.
func New(api board.API, driver PromptDriver, opts ...Option) *App {
	a := &App{
		api:    api,
		driver: driver,
		board:  board.New(),
		loc:    time.Local,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Board exposes the view state.
func (a *App) Board() *board.Board {
	return a.board
}

// Confirm asks a yes/no question; it makes the App a board.Confirmer.
func (a *App) Confirm(ctx context.Context, message string) (bool, error) {
	return a.driver.Confirm(ctx, ConfirmConfig{Message: message})
}

// Run shows the board and serves the menu until the user quits or aborts.
func (a *App) Run(ctx context.Context) error {
	a.backend(a.board.Mount(ctx, a.api))
	for {
		if err := a.show(ctx); err != nil {
			return quiet(err)
		}
		idx, err := a.driver.Select(ctx, SelectConfig{Message: "What next?", Options: menu, PageSize: len(menu)})
		if err != nil {
			return quiet(err)
		}
		if idx < 0 || idx >= len(menu) || menu[idx] == ActionQuit {
			return nil
		}
		if err := a.dispatch(ctx, menu[idx]); err != nil {
			return quiet(err)
		}
	}
}

func (a *App) dispatch(ctx context.Context, action string) error {
	switch action {
	case ActionSearch:
		return a.search(ctx)
	case ActionSortBy:
		return a.sortBy(ctx)
	case ActionSortOrder:
		return a.sortOrder(ctx)
	case ActionCreate:
		return a.create(ctx)
	case ActionEdit:
		return a.edit(ctx)
	case ActionDelete:
		return a.remove(ctx)
	case ActionRefresh:
		a.backend(a.board.Refresh(ctx, a.api))
	}
	return nil
}

func (a *App) search(ctx context.Context) error {
	term, err := a.driver.Input(ctx, InputConfig{
		Message: "Search posts",
		Default: a.board.Shell.Search,
		Help:    "Matches title or content. Leave empty to list everything.",
	})
	if err != nil {
		return err
	}
	a.backend(a.board.Search(ctx, a.api, term))
	return nil
}

func (a *App) sortBy(ctx context.Context) error {
	idx, err := a.driver.Select(ctx, SelectConfig{
		Message:      "Sort by",
		Options:      sortLabels,
		DefaultIndex: indexOf(sortFields, a.board.Shell.SortBy),
	})
	if err != nil || idx < 0 || idx >= len(sortFields) {
		return err
	}
	if sortFields[idx] == a.board.Shell.SortBy {
		return nil
	}
	a.backend(a.board.Sort(ctx, a.api, "sortBy", sortFields[idx]))
	return nil
}

func (a *App) sortOrder(ctx context.Context) error {
	current := 0
	for i, o := range orders {
		if o == a.board.Shell.SortOrder {
			current = i
		}
	}
	idx, err := a.driver.Select(ctx, SelectConfig{Message: "Order", Options: orderLabel, DefaultIndex: current})
	if err != nil || idx < 0 || idx >= len(orders) {
		return err
	}
	if orders[idx] == a.board.Shell.SortOrder {
		return nil
	}
	a.backend(a.board.Sort(ctx, a.api, "sortOrder", string(orders[idx])))
	return nil
}

func (a *App) create(ctx context.Context) error {
	f := &a.board.Create
	f.Expand()
	for {
		title, err := a.driver.Input(ctx, InputConfig{Message: "Title", Default: f.Title})
		if err != nil {
			f.Cancel()
			return err
		}
		content, err := a.driver.TextArea(ctx, TextAreaConfig{Message: "Content", Default: f.Content})
		if err != nil {
			f.Cancel()
			return err
		}
		a.backend(a.board.CreatePost(ctx, a.api, title, content))
		if !f.Open {
			return nil
		}
		retry, err := a.retry(ctx, f.Errors)
		if err != nil || !retry {
			f.Cancel()
			return err
		}
	}
}

func (a *App) edit(ctx context.Context) error {
	id, ok, err := a.pick(ctx, "Edit which post?")
	if err != nil || !ok {
		return err
	}
	v, ok := a.board.Card(id)
	if !ok {
		return nil
	}
	v.Edit()
	for {
		title, err := a.driver.Input(ctx, InputConfig{Message: "Title", Default: v.Title})
		if err != nil {
			v.CancelEdit()
			return err
		}
		content, err := a.driver.TextArea(ctx, TextAreaConfig{Message: "Content", Default: v.Content})
		if err != nil {
			v.CancelEdit()
			return err
		}
		a.backend(a.board.SavePost(ctx, a.api, id, title, content))
		if v, ok = a.board.Card(id); !ok || !v.Editing {
			return nil
		}
		retry, err := a.retry(ctx, v.Errors)
		if err != nil || !retry {
			v.CancelEdit()
			return err
		}
	}
}

func (a *App) remove(ctx context.Context) error {
	id, ok, err := a.pick(ctx, "Delete which post?")
	if err != nil || !ok {
		return err
	}
	err = a.board.DeletePost(ctx, a.api, a, id)
	if errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled) {
		return err
	}
	a.backend(err)
	return nil
}

// pick lets the user choose a listed post. ok is false when there is none or
// the user backs out.
func (a *App) pick(ctx context.Context, message string) (int64, bool, error) {
	posts := a.board.Shell.Posts
	if len(posts) == 0 {
		return 0, false, a.driver.Info(ctx, "There are no posts to choose from.")
	}
	options := make([]string, 0, len(posts)+1)
	for _, p := range posts {
		options = append(options, fmt.Sprintf("#%d %s", p.ID, p.Title))
	}
	options = append(options, "Back")
	idx, err := a.driver.Select(ctx, SelectConfig{Message: message, Options: options})
	if err != nil {
		return 0, false, err
	}
	if idx < 0 || idx >= len(posts) {
		return 0, false, nil
	}
	return posts[idx].ID, true, nil
}

// retry shows why a submit did not go through and asks whether to try again
// with the entered values. Without field errors the backend failed and the
// notice is shown instead.
func (a *App) retry(ctx context.Context, errs board.FieldErrors) (bool, error) {
	msgs := []string{errs.Title, errs.Content}
	if !errs.Any() {
		msgs = []string{a.board.TakeNotice()}
	}
	for _, msg := range msgs {
		if msg == "" {
			continue
		}
		if err := a.driver.Info(ctx, "  ! "+msg); err != nil {
			return false, err
		}
	}
	return a.driver.Confirm(ctx, ConfirmConfig{Message: "Try again?", Default: true})
}

func (a *App) show(ctx context.Context) error {
	return a.driver.Info(ctx, Render(a.board, a.loc))
}

// backend logs a failed backend call. The board already carries the
// user-facing message.
func (a *App) backend(err error) {
	if err != nil {
		a.logger.Warn("backend call failed", zap.Error(err))
	}
}

// Render formats the board as plain text. It consumes the notice.
func Render(b *board.Board, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString("== Bulletin Board ==\n")
	if b.Shell.ShowLoading() {
		sb.WriteString(board.MsgLoading + "\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "Sorted by %s, %s", label(sortFields, sortLabels, b.Shell.SortBy), orderName(b.Shell.SortOrder))
	if b.Shell.Active != "" {
		fmt.Fprintf(&sb, ", matching %q", b.Shell.Active)
	}
	sb.WriteString("\n")
	if b.Shell.SearchError != "" {
		sb.WriteString("! " + b.Shell.SearchError + "\n")
	}
	if notice := b.TakeNotice(); notice != "" {
		sb.WriteString("* " + notice + "\n")
	}
	if b.Shell.Error != "" {
		sb.WriteString("Error: " + b.Shell.Error + "\n")
	}
	if b.Shell.ShowEmpty() {
		sb.WriteString(board.MsgEmpty + "\n")
	}
	for _, item := range b.Items() {
		p := item.Post
		fmt.Fprintf(&sb, "\n#%d %s\n%s\n", p.ID, p.Title, p.Content)
		fmt.Fprintf(&sb, "Posted on: %s\n", board.FormatTime(p.CreatedAt.Time, loc))
		if p.Edited() {
			fmt.Fprintf(&sb, "Last updated: %s\n", board.FormatTime(p.UpdatedAt.Time, loc))
		}
	}
	return sb.String()
}

func label(values, labels []string, v string) string {
	if i := indexOf(values, v); i >= 0 {
		return labels[i]
	}
	return v
}

func orderName(o models.SortOrder) string {
	for i := range orders {
		if orders[i] == o {
			return orderLabel[i]
		}
	}
	return string(o)
}

func indexOf(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return -1
}

func quiet(err error) error {
	if errors.Is(err, ErrAborted) {
		return nil
	}
	return err
}
