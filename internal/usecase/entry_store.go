package usecase

import (
	"fmt"

	"github.com/cashclarity/ledgersync/internal/domain"
)

// storedEntry pairs an entry with a revision that grows on every local edit.
// A save only cleans an entry whose revision is unchanged since the save
// captured it.
type storedEntry struct {
	entry    domain.Entry
	revision uint64
}

// savedEntry is what a save captured of one entry.
type savedEntry struct {
	id       string
	revision uint64
	wasNew   bool
}

// EntryStore is the ordered in-memory table of entries. It is not safe for
// concurrent use; Sheet serializes access to it.
type EntryStore struct {
	entries []*storedEntry
	index   map[string]*storedEntry
}

// NewEntryStore creates a store holding already persisted entries.
func NewEntryStore(initial []domain.Entry) *EntryStore {
	s := &EntryStore{
		entries: make([]*storedEntry, 0, len(initial)),
		index:   make(map[string]*storedEntry, len(initial)),
	}

	for _, e := range initial {
		se := &storedEntry{entry: e}
		s.entries = append(s.entries, se)
		s.index[e.ID] = se
	}

	return s
}

// Len returns the number of entries.
func (s *EntryStore) Len() int {
	return len(s.entries)
}

// Get returns a copy of the entry with the given id.
func (s *EntryStore) Get(id string) (domain.Entry, bool) {
	se, ok := s.index[id]
	if !ok {
		return domain.Entry{}, false
	}
	return se.entry, true
}

// All returns copies of all entries in table order.
func (s *EntryStore) All() []domain.Entry {
	out := make([]domain.Entry, len(s.entries))
	for i, se := range s.entries {
		out[i] = se.entry
	}
	return out
}

// Add inserts a new entry after the last entry of the same direction and
// category, or at the end when the group is empty.
func (s *EntryStore) Add(e domain.Entry) error {
	if _, exists := s.index[e.ID]; exists {
		return fmt.Errorf("%w: duplicate id %s", domain.ErrInvalidEntryID, e.ID)
	}

	se := &storedEntry{entry: e}

	pos := len(s.entries)
	for i := len(s.entries) - 1; i >= 0; i-- {
		other := s.entries[i].entry
		if other.Direction == e.Direction && other.CategoryID == e.CategoryID {
			pos = i + 1
			break
		}
	}

	s.entries = append(s.entries, nil)
	copy(s.entries[pos+1:], s.entries[pos:])
	s.entries[pos] = se
	s.index[e.ID] = se

	return nil
}

// Update applies fn to the entry and bumps its revision.
func (s *EntryStore) Update(id string, fn func(*domain.Entry)) error {
	se, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrEntryNotFound, id)
	}

	fn(&se.entry)
	se.revision++

	return nil
}

// Remove deletes the entry from the table.
func (s *EntryStore) Remove(id string) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}

	delete(s.index, id)
	for i, se := range s.entries {
		if se.entry.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}

	return true
}

// Dirty returns the entries that belong in the next save together with the
// revisions they were captured at.
func (s *EntryStore) Dirty() ([]domain.Entry, []savedEntry) {
	var (
		entries []domain.Entry
		marks   []savedEntry
	)

	for _, se := range s.entries {
		if !se.entry.NeedsSave() {
			continue
		}
		entries = append(entries, se.entry)
		marks = append(marks, savedEntry{
			id:       se.entry.ID,
			revision: se.revision,
			wasNew:   se.entry.IsNew,
		})
	}

	return entries, marks
}

// HasDirty reports whether any entry needs saving.
func (s *EntryStore) HasDirty() bool {
	for _, se := range s.entries {
		if se.entry.NeedsSave() {
			return true
		}
	}
	return false
}

// MarkSaved reconciles a successful save. Every captured entry is persisted
// now, so IsNew is cleared. Entries edited after capture stay dirty as
// IsEdited so the next save sends their newer values.
func (s *EntryStore) MarkSaved(marks []savedEntry) {
	for _, m := range marks {
		se, ok := s.index[m.id]
		if !ok {
			continue
		}

		se.entry.IsNew = false
		se.entry.IsEdited = se.revision != m.revision
	}
}
