package service_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gamelibrary/internal/access"
	"gamelibrary/internal/apperror"
	"gamelibrary/internal/model"
	"gamelibrary/internal/repository"
	"gamelibrary/internal/service"
	"gamelibrary/internal/testutil"
)

type publishedEvent struct {
	UserID uint
	Name   string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) PublishToUser(userID uint, event string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{UserID: userID, Name: event})
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name)
	}
	return out
}

func newLibraryService(db *gorm.DB, events service.Publisher) service.LibraryService {
	return service.NewLibraryService(
		repository.NewLibraryRepository(db),
		repository.NewGameRepository(db),
		repository.NewTransactionManager(db),
		events,
	)
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestAddToLibraryOnce(t *testing.T) {
	ctx := context.Background()
	db := testutil.SeededDB(t)
	events := &recordingPublisher{}
	library := newLibraryService(db, events)

	user := testutil.CreateUser(t, db, "Ana", "ana@example.com", model.RoleUser)
	caller := access.Caller{ID: user.ID}

	entry, err := library.AddToLibrary(ctx, caller, service.AddToLibraryRequest{
		UserID: service.FlexID(user.ID),
		GameID: 42,
		Title:  "Test Game",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, entry.Status)
	assert.Zero(t, entry.Rating)
	assert.Equal(t, uint(42), entry.GameID)

	_, err = library.AddToLibrary(ctx, caller, service.AddToLibraryRequest{
		UserIDAlt: service.FlexID(user.ID),
		GameIDAlt: 42,
		Titulo:    "Test Game",
	})
	assert.ErrorIs(t, err, apperror.ErrDuplicateEntry)

	entries, err := library.GetUserLibrary(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	var games int64
	require.NoError(t, db.Model(&model.Game{}).Where("id = ?", 42).Count(&games).Error)
	assert.Equal(t, int64(1), games)

	assert.Equal(t, []string{service.EventLibraryAdded}, events.names())
}

func TestAddToLibraryRejects(t *testing.T) {
	ctx := context.Background()
	db := testutil.SeededDB(t)
	library := newLibraryService(db, nil)

	ana := testutil.CreateUser(t, db, "Ana", "ana@example.com", model.RoleUser)
	bob := testutil.CreateUser(t, db, "Bob", "bob@example.com", model.RoleUser)
	admin := testutil.CreateUser(t, db, "Root", "root@example.com", model.RoleAdmin)

	_, err := library.AddToLibrary(ctx, access.Caller{ID: ana.ID}, service.AddToLibraryRequest{UserID: service.FlexID(ana.ID), GameID: 7})
	assert.Equal(t, apperror.Validation, apperror.KindOf(err))

	_, err = library.AddToLibrary(ctx, access.Caller{ID: ana.ID}, service.AddToLibraryRequest{UserID: service.FlexID(bob.ID), GameID: 7, Name: "Portal"})
	assert.Equal(t, apperror.Forbidden, apperror.KindOf(err))

	entry, err := library.AddToLibrary(ctx, access.Caller{ID: admin.ID, Admin: true}, service.AddToLibraryRequest{
		UserID:     service.FlexID(bob.ID),
		GameID:     7,
		Name:       "Portal",
		ImagenURL:  "https://img.example/portal.jpg",
		Plataforma: "PC",
	})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, entry.UserID)
	assert.Equal(t, "https://img.example/portal.jpg", entry.ImageURL)
	assert.Equal(t, "PC", entry.Platform)
}

func TestUpdateEntryIsPartial(t *testing.T) {
	ctx := context.Background()
	db := testutil.SeededDB(t)
	library := newLibraryService(db, nil)

	user := testutil.CreateUser(t, db, "Ana", "ana@example.com", model.RoleUser)
	caller := access.Caller{ID: user.ID}
	entry := testutil.AddEntry(t, db, user.ID, 42, "Test Game")

	updated, err := library.UpdateEntry(ctx, caller, entry.ID, service.UpdateEntryRequest{Rating: intPtr(4)})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Rating)
	assert.Equal(t, model.StatusPending, updated.Status)

	updated, err = library.UpdateEntry(ctx, caller, entry.ID, service.UpdateEntryRequest{Status: strPtr("Playing")})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPlaying, updated.Status)
	assert.Equal(t, 4, updated.Rating)

	// rating zero clears the rating
	updated, err = library.UpdateEntry(ctx, caller, entry.ID, service.UpdateEntryRequest{Valoracion: intPtr(0)})
	require.NoError(t, err)
	assert.Zero(t, updated.Rating)
	assert.Equal(t, model.StatusPlaying, updated.Status)
}

func TestUpdateEntryValidation(t *testing.T) {
	ctx := context.Background()
	db := testutil.SeededDB(t)
	library := newLibraryService(db, nil)

	user := testutil.CreateUser(t, db, "Ana", "ana@example.com", model.RoleUser)
	caller := access.Caller{ID: user.ID}
	entry := testutil.AddEntry(t, db, user.ID, 42, "Test Game")

	testCases := []struct {
		name string
		req  service.UpdateEntryRequest
	}{
		{"empty", service.UpdateEntryRequest{}},
		{"unknown status", service.UpdateEntryRequest{Status: strPtr("wishlist")}},
		{"rating too high", service.UpdateEntryRequest{Rating: intPtr(6)}},
		{"negative rating", service.UpdateEntryRequest{Rating: intPtr(-1)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := library.UpdateEntry(ctx, caller, entry.ID, tc.req)
			assert.Equal(t, apperror.Validation, apperror.KindOf(err))
		})
	}

	_, err := library.UpdateEntry(ctx, caller, 9999, service.UpdateEntryRequest{Rating: intPtr(3)})
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
}

func TestEntryOwnerOrAdmin(t *testing.T) {
	ctx := context.Background()
	db := testutil.SeededDB(t)
	library := newLibraryService(db, nil)

	ana := testutil.CreateUser(t, db, "Ana", "ana@example.com", model.RoleUser)
	bob := testutil.CreateUser(t, db, "Bob", "bob@example.com", model.RoleUser)
	admin := testutil.CreateUser(t, db, "Root", "root@example.com", model.RoleAdmin)
	entry := testutil.AddEntry(t, db, ana.ID, 42, "Test Game")

	_, err := library.GetEntry(ctx, access.Caller{ID: bob.ID}, entry.ID)
	assert.Equal(t, apperror.Forbidden, apperror.KindOf(err))

	_, err = library.UpdateEntry(ctx, access.Caller{ID: bob.ID}, entry.ID, service.UpdateEntryRequest{Rating: intPtr(1)})
	assert.Equal(t, apperror.Forbidden, apperror.KindOf(err))

	err = library.DeleteEntry(ctx, access.Caller{ID: bob.ID}, entry.ID)
	assert.Equal(t, apperror.Forbidden, apperror.KindOf(err))

	got, err := library.GetEntry(ctx, access.Caller{ID: admin.ID, Admin: true}, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, ana.ID, got.UserID)
}

func TestDeleteEntry(t *testing.T) {
	ctx := context.Background()
	db := testutil.SeededDB(t)
	events := &recordingPublisher{}
	library := newLibraryService(db, events)

	user := testutil.CreateUser(t, db, "Ana", "ana@example.com", model.RoleUser)
	caller := access.Caller{ID: user.ID}
	entry := testutil.AddEntry(t, db, user.ID, 42, "Test Game")
	require.NoError(t, db.Create(&model.Review{UserID: user.ID, LibraryEntryID: entry.ID, Rating: 5}).Error)

	require.NoError(t, library.DeleteEntry(ctx, caller, entry.ID))

	err := library.DeleteEntry(ctx, caller, entry.ID)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))

	var reviews int64
	require.NoError(t, db.Model(&model.Review{}).Where("library_entry_id = ?", entry.ID).Count(&reviews).Error)
	assert.Zero(t, reviews)

	entries, err := library.GetUserLibrary(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.Equal(t, []string{service.EventLibraryRemoved}, events.names())
}

func TestAddToLibraryRequestAcceptsStringIDs(t *testing.T) {
	var req service.AddToLibraryRequest
	require.NoError(t, json.Unmarshal([]byte(`{"userId":"12","game_id":" 7 ","title":"Portal"}`), &req))
	assert.Equal(t, uint(12), req.Owner())
	assert.Equal(t, uint(7), req.Game())

	req = service.AddToLibraryRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"userId":null,"user_id":3,"gameId":"0","game_id":9}`), &req))
	assert.Equal(t, uint(3), req.Owner())
	assert.Equal(t, uint(9), req.Game())

	for _, body := range []string{`{"userId":"abc"}`, `{"userId":-4}`, `{"gameId":1.5}`, `{"gameId":true}`} {
		assert.Error(t, json.Unmarshal([]byte(body), &service.AddToLibraryRequest{}), body)
	}
}
