package client

import (
	"context"
	"fmt"
	"sync"
)

// LibraryAPI is the part of Client a LibraryView writes through.
type LibraryAPI interface {
	UpdateEntry(ctx context.Context, id uint, status *string, rating *int) (*Entry, error)
	RemoveEntry(ctx context.Context, id uint) error
}

// LibraryView is a local copy of one library. Mutations apply locally first and are rolled
// back when the server rejects them. Each change is sent once.
type LibraryView struct {
	mu      sync.Mutex
	api     LibraryAPI
	entries []Entry
}

func NewLibraryView(api LibraryAPI, entries []Entry) *LibraryView {
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	return &LibraryView{api: api, entries: cp}
}

// Entries returns a snapshot.
func (v *LibraryView) Entries() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()

	cp := make([]Entry, len(v.entries))
	copy(cp, v.entries)
	return cp
}

func (v *LibraryView) SetStatus(ctx context.Context, id uint, status string) error {
	return v.update(ctx, id, func(e *Entry) { e.Status = status }, &status, nil)
}

func (v *LibraryView) SetRating(ctx context.Context, id uint, rating int) error {
	return v.update(ctx, id, func(e *Entry) { e.Rating = rating }, nil, &rating)
}

// Remove drops the entry locally and puts it back at the same position on failure.
func (v *LibraryView) Remove(ctx context.Context, id uint) error {
	v.mu.Lock()
	idx := v.indexOf(id)
	if idx < 0 {
		v.mu.Unlock()
		return fmt.Errorf("entry %d is not in the library", id)
	}
	removed := v.entries[idx]
	v.entries = append(v.entries[:idx], v.entries[idx+1:]...)
	v.mu.Unlock()

	if err := v.api.RemoveEntry(ctx, id); err != nil {
		v.mu.Lock()
		if idx > len(v.entries) {
			idx = len(v.entries)
		}
		v.entries = append(v.entries[:idx], append([]Entry{removed}, v.entries[idx:]...)...)
		v.mu.Unlock()
		return err
	}
	return nil
}

func (v *LibraryView) update(ctx context.Context, id uint, apply func(*Entry), status *string, rating *int) error {
	v.mu.Lock()
	idx := v.indexOf(id)
	if idx < 0 {
		v.mu.Unlock()
		return fmt.Errorf("entry %d is not in the library", id)
	}
	prev := v.entries[idx]
	apply(&v.entries[idx])
	v.mu.Unlock()

	saved, err := v.api.UpdateEntry(ctx, id, status, rating)

	v.mu.Lock()
	defer v.mu.Unlock()
	// the entry may have moved while the call was in flight
	idx = v.indexOf(id)
	if idx < 0 {
		return err
	}
	if err != nil {
		v.entries[idx] = prev
		return err
	}
	if saved != nil {
		v.entries[idx] = *saved
	}
	return nil
}

func (v *LibraryView) indexOf(id uint) int {
	for i := range v.entries {
		if v.entries[i].ID == id {
			return i
		}
	}
	return -1
}
