package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamelibrary/internal/apperror"
	"gamelibrary/internal/catalog"
	"gamelibrary/internal/model"
	"gamelibrary/internal/repository"
	"gamelibrary/internal/service"
	"gamelibrary/internal/testutil"
)

type fakeSource struct {
	searchErr error
	pages     map[int][]catalog.Game
	details   map[uint]catalog.Game
}

func (f *fakeSource) Search(_ context.Context, query string, page, pageSize int) (json.RawMessage, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return json.RawMessage(`{"count":1,"results":[{"id":3498,"name":"` + query + `"}]}`), nil
}

func (f *fakeSource) ListGames(_ context.Context, page, _ int) ([]catalog.Game, error) {
	games, ok := f.pages[page]
	if !ok {
		return nil, &catalog.StatusError{StatusCode: 404}
	}
	return games, nil
}

func (f *fakeSource) GetGame(_ context.Context, id uint) (*catalog.Game, error) {
	g, ok := f.details[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &g, nil
}

func TestSearchPassesUpstreamThrough(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	catalogs := service.NewCatalogService(&fakeSource{}, repository.NewGameRepository(db), 20)

	raw, err := catalogs.Search(context.Background(), "zelda", 1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":1,"results":[{"id":3498,"name":"zelda"}]}`, string(raw))
}

func TestSearchFallsBackToLocalGames(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenInMemoryDB(t)
	require.NoError(t, db.Create(&[]model.Game{
		{ID: 1, Title: "Portal"},
		{ID: 2, Title: "Portal 2"},
		{ID: 3, Title: "Doom"},
	}).Error)

	source := &fakeSource{searchErr: catalog.ErrNoAPIKey}
	catalogs := service.NewCatalogService(source, repository.NewGameRepository(db), 20)

	raw, err := catalogs.Search(ctx, "PORTAL", 1)
	require.NoError(t, err)

	var page service.LocalPage
	require.NoError(t, json.Unmarshal(raw, &page))
	assert.Equal(t, int64(2), page.Count)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "Portal", page.Results[0].Title)
	assert.Nil(t, page.Next)

	source.searchErr = errors.New("connection reset")
	raw, err = catalogs.Search(ctx, "", 0)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &page))
	assert.Equal(t, int64(3), page.Count)
}

func TestGetGame(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenInMemoryDB(t)
	require.NoError(t, db.Create(&model.Game{ID: 1, Title: "Portal"}).Error)

	remote := catalog.Game{ID: 2, Name: "Half-Life", DescriptionRaw: "Crowbars."}
	source := &fakeSource{details: map[uint]catalog.Game{2: remote}}
	catalogs := service.NewCatalogService(source, repository.NewGameRepository(db), 20)

	local, err := catalogs.GetGame(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Portal", local.Title)

	fetched, err := catalogs.GetGame(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Half-Life", fetched.Title)
	assert.Equal(t, "Crowbars.", fetched.Description)
	assert.Equal(t, "Unknown", fetched.Platform)

	_, err = catalogs.GetGame(ctx, 3)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
}

func TestSeedSkipsExistingGames(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenInMemoryDB(t)
	require.NoError(t, db.Create(&model.Game{ID: 1, Title: "Kept"}).Error)

	source := &fakeSource{pages: map[int][]catalog.Game{
		1: {{ID: 1, Name: "Replaced?"}, {ID: 2, Name: "Two"}},
		2: {{ID: 3, Name: "Three"}},
	}}
	games := repository.NewGameRepository(db)
	catalogs := service.NewCatalogService(source, games, 20)

	inserted, err := catalogs.Seed(ctx, 2, 40)
	require.NoError(t, err)
	assert.Equal(t, int64(2), inserted)

	kept, err := games.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Kept", kept.Title)

	seeded, err := games.FindByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Description not available in the quick view.", seeded.Description)

	inserted, err = catalogs.Seed(ctx, 3, 40)
	assert.Error(t, err)
	assert.Zero(t, inserted)
}
