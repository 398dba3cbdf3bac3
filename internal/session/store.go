// Package session keeps each visitor's board view state between requests.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sujalbistaa/pinboard/internal/board"
)

// ErrNotFound is returned when a visitor has no stored state, or it expired.
var ErrNotFound = errors.New("session: not found")

// Store persists encoded board state by visitor id.
type Store interface {
	Load(ctx context.Context, id string) (*board.Board, error)
	Save(ctx context.Context, id string, b *board.Board) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Sweeper is implemented by stores that need expired entries removed
// explicitly.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Open picks a store by URL: "memory", "sqlite://<path>", "postgres://..."
// or "redis://...".
func Open(url string, ttl time.Duration) (Store, error) {
	switch {
	case url == "" || url == "memory":
		return NewMemoryStore(ttl), nil
	case strings.HasPrefix(url, "sqlite://"):
		return OpenSQLite(strings.TrimPrefix(url, "sqlite://"), ttl)
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return OpenPostgres(url, ttl)
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		return OpenRedis(url, ttl)
	default:
		return nil, fmt.Errorf("session store %q: want memory, sqlite://, postgres:// or redis://", url)
	}
}

func encode(b *board.Board) ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode board: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*board.Board, error) {
	b := board.New()
	if err := json.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	if b.Cards == nil {
		b.Cards = map[int64]*board.PostView{}
	}
	return b, nil
}
