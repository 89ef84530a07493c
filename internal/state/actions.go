package state

import (
	"slices"

	"producthot/internal/model"
)

// ActionKind enumerates the mutations a Store accepts.
type ActionKind string

const (
	KindSetNews        ActionKind = "set_news"
	KindSetLoading     ActionKind = "set_loading"
	KindSetError       ActionKind = "set_error"
	KindAddFavorite    ActionKind = "add_favorite"
	KindRemoveFavorite ActionKind = "remove_favorite"
	KindAddHistory     ActionKind = "add_history"
	KindClearHistory   ActionKind = "clear_history"
	KindAddBookmark    ActionKind = "add_bookmark"
	KindRemoveBookmark ActionKind = "remove_bookmark"
	KindUpdateSettings ActionKind = "update_settings"
	KindSetFilter      ActionKind = "set_filter"
	KindResetFilter    ActionKind = "reset_filter"
)

func (k ActionKind) persisted() bool {
	switch k {
	case KindAddFavorite, KindRemoveFavorite, KindAddHistory, KindClearHistory,
		KindAddBookmark, KindRemoveBookmark, KindUpdateSettings:
		return true
	}
	return false
}

// Action is a single store mutation.
type Action interface {
	Kind() ActionKind
	apply(s *Snapshot) error
}

// SetNews replaces the news list and channels wholesale.
type SetNews struct {
	Items    []model.NewsItem
	Channels []model.Channel
}

func (SetNews) Kind() ActionKind { return KindSetNews }
func (a SetNews) apply(s *Snapshot) error {
	s.News = slices.Clone(a.Items)
	if s.News == nil {
		s.News = []model.NewsItem{}
	}
	s.Channels = slices.Clone(a.Channels)
	if s.Channels == nil {
		s.Channels = []model.Channel{}
	}
	return nil
}

type SetLoading struct{ Loading bool }

func (SetLoading) Kind() ActionKind { return KindSetLoading }
func (a SetLoading) apply(s *Snapshot) error {
	s.Loading = a.Loading
	return nil
}

// SetError sets or, with an empty message, clears the error.
type SetError struct{ Message string }

func (SetError) Kind() ActionKind { return KindSetError }
func (a SetError) apply(s *Snapshot) error {
	s.Error = a.Message
	return nil
}

type AddFavorite struct{ ID int }

func (AddFavorite) Kind() ActionKind { return KindAddFavorite }
func (a AddFavorite) apply(s *Snapshot) error {
	if !slices.Contains(s.Favorites, a.ID) {
		s.Favorites = append(s.Favorites, a.ID)
	}
	return nil
}

type RemoveFavorite struct{ ID int }

func (RemoveFavorite) Kind() ActionKind { return KindRemoveFavorite }
func (a RemoveFavorite) apply(s *Snapshot) error {
	s.Favorites = without(s.Favorites, a.ID)
	return nil
}

// AddHistory moves ID to the front of the history, dropping entries past HistoryLimit.
type AddHistory struct{ ID int }

func (AddHistory) Kind() ActionKind { return KindAddHistory }
func (a AddHistory) apply(s *Snapshot) error {
	h := make([]int, 0, min(len(s.History)+1, HistoryLimit))
	h = append(h, a.ID)
	for _, id := range s.History {
		if len(h) == HistoryLimit {
			break
		}
		if id != a.ID {
			h = append(h, id)
		}
	}
	s.History = h
	return nil
}

type ClearHistory struct{}

func (ClearHistory) Kind() ActionKind { return KindClearHistory }
func (ClearHistory) apply(s *Snapshot) error {
	s.History = []int{}
	return nil
}

type AddBookmark struct{ ID int }

func (AddBookmark) Kind() ActionKind { return KindAddBookmark }
func (a AddBookmark) apply(s *Snapshot) error {
	if !slices.Contains(s.Bookmarks, a.ID) {
		s.Bookmarks = append(s.Bookmarks, a.ID)
	}
	return nil
}

type RemoveBookmark struct{ ID int }

func (RemoveBookmark) Kind() ActionKind { return KindRemoveBookmark }
func (a RemoveBookmark) apply(s *Snapshot) error {
	s.Bookmarks = without(s.Bookmarks, a.ID)
	return nil
}

// UpdateSettings replaces the settings after validation.
type UpdateSettings struct{ Settings Settings }

func (UpdateSettings) Kind() ActionKind { return KindUpdateSettings }
func (a UpdateSettings) apply(s *Snapshot) error {
	if err := a.Settings.Validate(); err != nil {
		return err
	}
	s.Settings = a.Settings
	return nil
}

type SetFilter struct{ Filter Filter }

func (SetFilter) Kind() ActionKind { return KindSetFilter }
func (a SetFilter) apply(s *Snapshot) error {
	if _, err := ParseSortKey(string(a.Filter.Sort)); err != nil {
		return err
	}
	s.Filter = a.Filter
	return nil
}

type ResetFilter struct{}

func (ResetFilter) Kind() ActionKind { return KindResetFilter }
func (ResetFilter) apply(s *Snapshot) error {
	s.Filter = Filter{Sort: SortByDate}
	return nil
}

func without(ids []int, id int) []int {
	out := make([]int, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
