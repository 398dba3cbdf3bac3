package board

import (
	"github.com/sujalbistaa/pinboard/internal/models"
)

// Shell holds the list and its search/sort state.
type Shell struct {
	Posts       []models.Post    `json:"posts"`
	Loading     bool             `json:"loading"`
	Error       string           `json:"error,omitempty"`
	Search      string           `json:"search"`
	Active      string           `json:"active"`
	SortBy      string           `json:"sort_by"`
	SortOrder   models.SortOrder `json:"sort_order"`
	SearchError string           `json:"search_error,omitempty"`
	Mounted     bool             `json:"mounted"`

	// FetchSeq numbers list requests so only the latest one lands.
	FetchSeq int `json:"fetch_seq"`
}

// NewShell returns a shell with the default sort.
func NewShell() Shell {
	q := models.DefaultListQuery()
	return Shell{SortBy: q.SortBy, SortOrder: q.SortOrder}
}

// Query returns the parameters of the next list request.
func (s *Shell) Query() models.ListQuery {
	return models.ListQuery{Search: s.Active, SortBy: s.SortBy, SortOrder: s.SortOrder}.WithDefaults()
}

// SubmitSearch records the typed term and reports whether it may be fetched.
// A rejected term leaves the active search and the current list untouched.
func (s *Shell) SubmitSearch(term string) bool {
	s.Search = term
	trimmed, msg := ValidateSearch(term)
	if msg != "" {
		s.SearchError = msg
		return false
	}
	s.SearchError = ""
	s.Active = trimmed
	return true
}

// SetSort updates sortBy or sortOrder. Unknown fields and values the
// backend does not accept are ignored.
func (s *Shell) SetSort(field, value string) bool {
	switch field {
	case "sortBy":
		if value != models.SortByCreatedAt && value != models.SortByTitle {
			return false
		}
		s.SortBy = value
	case "sortOrder":
		if o := models.SortOrder(value); o != models.SortAsc && o != models.SortDesc {
			return false
		}
		s.SortOrder = models.SortOrder(value)
	default:
		return false
	}
	return true
}

// BeginFetch marks a list request as started and returns its ticket and
// parameters.
func (s *Shell) BeginFetch() (int, models.ListQuery) {
	s.FetchSeq++
	s.Loading = true
	s.Mounted = true
	s.Error = ""
	return s.FetchSeq, s.Query()
}

// FinishFetch applies a list result. Results of superseded requests are
// dropped and reported as not applied.
func (s *Shell) FinishFetch(ticket int, posts []models.Post, err error) bool {
	if ticket != s.FetchSeq {
		return false
	}
	s.Loading = false
	if err != nil {
		s.Error = MsgLoadFailed
		s.Posts = nil
		return true
	}
	s.Error = ""
	s.Posts = posts
	return true
}

// ShowLoading reports whether only the loading indicator is shown.
func (s *Shell) ShowLoading() bool {
	return s.Loading
}

// ShowEmpty reports whether the empty-state message is shown.
func (s *Shell) ShowEmpty() bool {
	return !s.Loading && len(s.Posts) == 0 && s.Error == ""
}
