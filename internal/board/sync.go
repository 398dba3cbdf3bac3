package board

import (
	"context"
)

// Refresh re-fetches the list with the active parameters. The returned
// error is the backend failure, already reflected in the shell.
func (b *Board) Refresh(ctx context.Context, api Lister) error {
	ticket, q := b.BeginFetch()
	posts, err := api.List(ctx, q)
	b.FinishFetch(ticket, posts, err)
	return err
}

// Mount performs the first fetch once.
func (b *Board) Mount(ctx context.Context, api Lister) error {
	if b.Shell.Mounted {
		return nil
	}
	return b.Refresh(ctx, api)
}

// Search submits a search term. Rejected terms make no request.
func (b *Board) Search(ctx context.Context, api Lister, term string) error {
	if !b.Shell.SubmitSearch(term) {
		return nil
	}
	return b.Refresh(ctx, api)
}

// Sort changes sortBy or sortOrder and re-fetches.
func (b *Board) Sort(ctx context.Context, api Lister, field, value string) error {
	if !b.Shell.SetSort(field, value) {
		return nil
	}
	return b.Refresh(ctx, api)
}

// CreatePost submits the creation form and re-fetches on success.
func (b *Board) CreatePost(ctx context.Context, api API, title, content string) error {
	in, ok := b.BeginCreate(title, content)
	if !ok {
		return nil
	}
	_, err := api.Create(ctx, in)
	if !b.FinishCreate(err) {
		return err
	}
	return b.Refresh(ctx, api)
}

// SavePost submits the edit of post id and re-fetches on success.
func (b *Board) SavePost(ctx context.Context, api API, id int64, title, content string) error {
	in, ok := b.BeginSave(id, title, content)
	if !ok {
		return nil
	}
	_, err := api.Update(ctx, id, in)
	if !b.FinishSave(id, err) {
		return err
	}
	return b.Refresh(ctx, api)
}

// DeletePost asks for confirmation, deletes post id and re-fetches on
// success. Nothing is sent unless the answer is yes.
func (b *Board) DeletePost(ctx context.Context, api API, c Confirmer, id int64) error {
	if !b.RequestDelete(id) {
		return nil
	}
	yes, err := c.Confirm(ctx, MsgConfirm)
	if err != nil {
		b.AnswerDelete(id, false)
		return err
	}
	if !b.AnswerDelete(id, yes) {
		return nil
	}
	_, err = api.Delete(ctx, id)
	if !b.FinishDelete(id, err) {
		return err
	}
	return b.Refresh(ctx, api)
}
