package board

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/sujalbistaa/pinboard/internal/models"
)

var errBackend = errors.New("backend down")

// fakeAPI is an in-memory posts backend that records calls.
type fakeAPI struct {
	posts  []models.Post
	nextID int64
	now    time.Time

	failList, failCreate, failUpdate, failDelete bool

	lists   []models.ListQuery
	creates []models.PostInput
	updates map[int64]models.PostInput
	deletes []int64
}

func newFakeAPI(posts ...models.Post) *fakeAPI {
	f := &fakeAPI{
		posts:   posts,
		nextID:  100,
		now:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		updates: map[int64]models.PostInput{},
	}
	return f
}

func (f *fakeAPI) tick() models.Timestamp {
	f.now = f.now.Add(time.Minute)
	return models.NewTimestamp(f.now)
}

func (f *fakeAPI) calls() int {
	return len(f.lists) + len(f.creates) + len(f.updates) + len(f.deletes)
}

func (f *fakeAPI) List(_ context.Context, q models.ListQuery) ([]models.Post, error) {
	f.lists = append(f.lists, q)
	if f.failList {
		return nil, errBackend
	}
	var out []models.Post
	for _, p := range f.posts {
		if q.Search == "" || strings.Contains(strings.ToLower(p.Title+" "+p.Content), strings.ToLower(q.Search)) {
			out = append(out, p)
		}
	}
	less := func(a, b models.Post) bool {
		if q.SortBy == models.SortByTitle {
			return a.Title < b.Title
		}
		return a.CreatedAt.Before(b.CreatedAt.Time)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.SortOrder == models.SortDesc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	if out == nil {
		out = []models.Post{}
	}
	return out, nil
}

func (f *fakeAPI) Create(_ context.Context, in models.PostInput) (*models.Post, error) {
	f.creates = append(f.creates, in)
	if f.failCreate {
		return nil, errBackend
	}
	f.nextID++
	ts := f.tick()
	p := models.Post{ID: f.nextID, Title: in.Title, Content: in.Content, CreatedAt: ts, UpdatedAt: ts}
	f.posts = append(f.posts, p)
	return &p, nil
}

func (f *fakeAPI) Update(_ context.Context, id int64, in models.PostInput) (*models.Post, error) {
	f.updates[id] = in
	if f.failUpdate {
		return nil, errBackend
	}
	for i := range f.posts {
		if f.posts[i].ID == id {
			f.posts[i].Title = in.Title
			f.posts[i].Content = in.Content
			f.posts[i].UpdatedAt = f.tick()
			p := f.posts[i]
			return &p, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeAPI) Delete(_ context.Context, id int64) (*models.DeleteResult, error) {
	f.deletes = append(f.deletes, id)
	if f.failDelete {
		return nil, errBackend
	}
	for i := range f.posts {
		if f.posts[i].ID == id {
			f.posts = append(f.posts[:i], f.posts[i+1:]...)
			return &models.DeleteResult{Message: "Post deleted successfully"}, nil
		}
	}
	return nil, errors.New("not found")
}

type answer bool

func (a answer) Confirm(context.Context, string) (bool, error) {
	return bool(a), nil
}

func samplePost(id int64, title, content string, minute int) models.Post {
	ts := models.NewTimestamp(time.Date(2024, 4, 1, 9, minute, 0, 0, time.UTC))
	return models.Post{ID: id, Title: title, Content: content, CreatedAt: ts, UpdatedAt: ts}
}
