package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sujalbistaa/pinboard/internal/board"
	"github.com/sujalbistaa/pinboard/internal/models"
	"github.com/sujalbistaa/pinboard/internal/session"
	"github.com/sujalbistaa/pinboard/internal/ws"
)

// MsgRateLimited is shown when a visitor submits too fast.
const MsgRateLimited = "Too many requests. Please wait."

// --- Structs for form binding ---
type searchForm struct {
	Q string `form:"q"`
}

type sortForm struct {
	SortBy    *string `form:"sortBy" binding:"omitempty,oneof=created_at title"`
	SortOrder *string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

type postForm struct {
	Title   string `form:"title"`
	Content string `form:"content"`
}

type confirmForm struct {
	Confirm string `form:"confirm" binding:"required,oneof=yes no"`
}

// --- Handlers ---

// Env carries the handler dependencies.
type Env struct {
	API      board.API
	Sessions *session.Manager
	Hub      *ws.Hub
	Logger   *zap.Logger
	Location *time.Location

	mu       sync.Mutex
	inflight map[string]int
}

// Index renders the board. It fetches the list on the visitor's first page,
// and again when stored state is still loading with no call in flight here.
func (e *Env) Index(c *gin.Context) {
	id := visitorID(c)
	err := e.fetch(c, id, func(b *board.Board) bool {
		if !b.Shell.Mounted {
			return true
		}
		// fetch counts this request as in flight.
		return e.calls(id) <= 1 && b.Recover()
	})
	if err != nil {
		e.fail(c, err)
		return
	}

	var page pageData
	err = e.Sessions.Update(detach(c), id, func(b *board.Board) error {
		page = buildPage(b, e.Location, e.Hub != nil)
		return nil
	})
	if err != nil {
		e.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "board.tmpl", page)
}

// Refresh re-fetches the list with the active parameters.
func (e *Env) Refresh(c *gin.Context) {
	e.act(c, e.fetch(c, visitorID(c), nil))
}

// Search submits the search term.
func (e *Env) Search(c *gin.Context) {
	var form searchForm
	if !e.bind(c, &form) {
		return
	}
	e.act(c, e.fetch(c, visitorID(c), func(b *board.Board) bool {
		return b.Shell.SubmitSearch(form.Q)
	}))
}

// Sort applies each changed sort parameter as its own re-fetch.
func (e *Env) Sort(c *gin.Context) {
	var form sortForm
	if !e.bind(c, &form) {
		return
	}
	id := visitorID(c)

	changes := []struct {
		field string
		value *string
	}{
		{"sortBy", form.SortBy},
		{"sortOrder", form.SortOrder},
	}
	for _, ch := range changes {
		if ch.value == nil {
			continue
		}
		value := *ch.value
		field := ch.field
		err := e.fetch(c, id, func(b *board.Board) bool {
			current := b.Shell.SortBy
			if field == "sortOrder" {
				current = string(b.Shell.SortOrder)
			}
			return value != current && b.Shell.SetSort(field, value)
		})
		if err != nil {
			e.fail(c, err)
			return
		}
	}
	e.act(c, nil)
}

// Compose expands the creation form.
func (e *Env) Compose(c *gin.Context) {
	e.act(c, e.update(c, func(b *board.Board) { b.Create.Expand() }))
}

// CancelCompose discards the creation form.
func (e *Env) CancelCompose(c *gin.Context) {
	e.act(c, e.update(c, func(b *board.Board) { b.Create.Cancel() }))
}

// CreatePost validates and submits the creation form.
func (e *Env) CreatePost(c *gin.Context) {
	var form postForm
	if !e.bind(c, &form) {
		return
	}
	id := visitorID(c)
	defer e.track(id)()

	var in models.PostInput
	var ok bool
	if err := e.update(c, func(b *board.Board) { in, ok = b.BeginCreate(form.Title, form.Content) }); err != nil || !ok {
		e.act(c, err)
		return
	}

	_, apiErr := e.API.Create(detach(c), in)
	if apiErr != nil {
		e.Logger.Warn("create post failed", zap.Error(apiErr), zap.String("request_id", c.GetString(requestIDKey)))
	}
	e.afterMutation(c, id, func(b *board.Board) bool { return b.FinishCreate(apiErr) })
}

// EditPost puts a card into edit state.
func (e *Env) EditPost(c *gin.Context) {
	e.withCard(c, func(b *board.Board, v *board.PostView) { v.Edit() })
}

// CancelEdit restores a card and leaves edit state.
func (e *Env) CancelEdit(c *gin.Context) {
	e.withCard(c, func(b *board.Board, v *board.PostView) { v.CancelEdit() })
}

// UpdatePost validates and submits an edit.
func (e *Env) UpdatePost(c *gin.Context) {
	postID, ok := e.postID(c)
	if !ok {
		return
	}
	var form postForm
	if !e.bind(c, &form) {
		return
	}
	id := visitorID(c)
	defer e.track(id)()

	var in models.PostInput
	var started bool
	if err := e.update(c, func(b *board.Board) { in, started = b.BeginSave(postID, form.Title, form.Content) }); err != nil || !started {
		e.act(c, err)
		return
	}

	_, apiErr := e.API.Update(detach(c), postID, in)
	if apiErr != nil {
		e.Logger.Warn("update post failed", zap.Int64("post_id", postID), zap.Error(apiErr), zap.String("request_id", c.GetString(requestIDKey)))
	}
	e.afterMutation(c, id, func(b *board.Board) bool { return b.FinishSave(postID, apiErr) })
}

// RequestDelete opens the delete confirmation of a card.
func (e *Env) RequestDelete(c *gin.Context) {
	postID, ok := e.postID(c)
	if !ok {
		return
	}
	e.act(c, e.update(c, func(b *board.Board) { b.RequestDelete(postID) }))
}

// ConfirmDelete answers the confirmation; only "yes" sends the delete.
func (e *Env) ConfirmDelete(c *gin.Context) {
	postID, ok := e.postID(c)
	if !ok {
		return
	}
	var form confirmForm
	if !e.bind(c, &form) {
		return
	}
	id := visitorID(c)
	defer e.track(id)()

	var send bool
	if err := e.update(c, func(b *board.Board) { send = b.AnswerDelete(postID, form.Confirm == "yes") }); err != nil || !send {
		e.act(c, err)
		return
	}

	_, apiErr := e.API.Delete(detach(c), postID)
	if apiErr != nil {
		e.Logger.Warn("delete post failed", zap.Int64("post_id", postID), zap.Error(apiErr), zap.String("request_id", c.GetString(requestIDKey)))
	}
	e.afterMutation(c, id, func(b *board.Board) bool { return b.FinishDelete(postID, apiErr) })
}

// RateLimitMiddleware turns away visitors over their request budget with a
// notice and no backend call.
func (e *Env) RateLimitMiddleware(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter.GetLimiter(c.ClientIP()).Allow() {
			c.Next()
			return
		}
		_ = e.update(c, func(b *board.Board) { b.Notify(MsgRateLimited) })
		c.Redirect(http.StatusSeeOther, "/")
		c.Abort()
	}
}

// fetch runs one list request for visitor id. begin runs under the lock and
// decides whether the request starts; nil always starts it.
func (e *Env) fetch(c *gin.Context, id string, begin func(b *board.Board) bool) error {
	defer e.track(id)()
	ctx := detach(c)

	var ticket int
	var q models.ListQuery
	started := false
	err := e.Sessions.Update(ctx, id, func(b *board.Board) error {
		if begin != nil && !begin(b) {
			return nil
		}
		ticket, q = b.BeginFetch()
		started = true
		return nil
	})
	if err != nil || !started {
		return err
	}

	posts, listErr := e.API.List(ctx, q)
	if listErr != nil {
		e.Logger.Warn("list posts failed", zap.Error(listErr), zap.String("request_id", c.GetString(requestIDKey)))
	}
	return e.Sessions.Update(ctx, id, func(b *board.Board) error {
		b.FinishFetch(ticket, posts, listErr)
		return nil
	})
}

// afterMutation applies a mutation result and, when it succeeded, re-fetches
// and tells other pages.
func (e *Env) afterMutation(c *gin.Context, id string, finish func(b *board.Board) bool) {
	var refresh bool
	if err := e.update(c, func(b *board.Board) { refresh = finish(b) }); err != nil {
		e.fail(c, err)
		return
	}
	if refresh {
		if err := e.fetch(c, id, nil); err != nil {
			e.fail(c, err)
			return
		}
		if e.Hub != nil {
			e.Hub.Notify()
		}
	}
	e.act(c, nil)
}

func (e *Env) withCard(c *gin.Context, fn func(b *board.Board, v *board.PostView)) {
	postID, ok := e.postID(c)
	if !ok {
		return
	}
	e.act(c, e.update(c, func(b *board.Board) {
		if v, ok := b.Card(postID); ok {
			fn(b, v)
		}
	}))
}

func (e *Env) update(c *gin.Context, fn func(b *board.Board)) error {
	return e.Sessions.Update(detach(c), visitorID(c), func(b *board.Board) error {
		fn(b)
		return nil
	})
}

// track counts a backend call of visitor id as in flight until the returned
// func runs.
func (e *Env) track(id string) func() {
	e.mu.Lock()
	if e.inflight == nil {
		e.inflight = make(map[string]int)
	}
	e.inflight[id]++
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.inflight[id]--; e.inflight[id] <= 0 {
			delete(e.inflight, id)
		}
	}
}

func (e *Env) calls(id string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inflight[id]
}

func (e *Env) bind(c *gin.Context, form any) bool {
	if err := c.ShouldBind(form); err != nil {
		_ = c.Error(err)
		c.String(http.StatusBadRequest, "Invalid form submission")
		return false
	}
	return true
}

func (e *Env) postID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid post ID")
		return 0, false
	}
	return id, true
}

// act ends an action with post/redirect/get, or a 500 on state errors.
func (e *Env) act(c *gin.Context, err error) {
	if err != nil {
		e.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (e *Env) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	e.Logger.Error("view state unavailable", zap.Error(err), zap.String("request_id", c.GetString(requestIDKey)))
	c.String(http.StatusInternalServerError, "Something went wrong. Please try again.")
}

// detach keeps request values but drops cancellation, so an action runs to
// its end (backend call and state save) even if the browser goes away.
func detach(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}
