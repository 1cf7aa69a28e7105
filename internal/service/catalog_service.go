package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gamelibrary/internal/apperror"
	"gamelibrary/internal/catalog"
	"gamelibrary/internal/model"
	"gamelibrary/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CatalogSource is the external game database.
type CatalogSource interface {
	Search(ctx context.Context, query string, page, pageSize int) (json.RawMessage, error)
	ListGames(ctx context.Context, page, pageSize int) ([]catalog.Game, error)
	GetGame(ctx context.Context, id uint) (*catalog.Game, error)
}

// LocalPage mirrors the shape of an upstream page when served from the local table.
type LocalPage struct {
	Results  []model.Game `json:"results"`
	Count    int64        `json:"count"`
	Next     *string      `json:"next"`
	Previous *string      `json:"previous"`
}

// seedDescription stands in for the long description the list endpoint does not return.
const seedDescription = "Description not available in the quick view."

type CatalogService interface {
	Search(ctx context.Context, query string, page int) (json.RawMessage, error)
	GetGame(ctx context.Context, id uint) (*model.Game, error)
	Seed(ctx context.Context, pages, pageSize int) (int64, error)
}

type catalogService struct {
	source   CatalogSource
	games    repository.GameRepository
	pageSize int
}

func NewCatalogService(source CatalogSource, games repository.GameRepository, pageSize int) CatalogService {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &catalogService{source: source, games: games, pageSize: pageSize}
}

// Search passes the upstream page through and falls back to the local table on any upstream error.
func (s *catalogService) Search(ctx context.Context, query string, page int) (json.RawMessage, error) {
	if page < 1 {
		page = 1
	}

	raw, err := s.source.Search(ctx, query, page, s.pageSize)
	if err == nil {
		return raw, nil
	}
	log.Warn().Err(err).Str("query", query).Int("page", page).Msg("catalog unavailable, serving local games")

	games, total, dbErr := s.games.Search(ctx, query, page, s.pageSize)
	if dbErr != nil {
		return nil, apperror.Internalf("failed to fetch games", dbErr)
	}

	out, err := json.Marshal(LocalPage{Results: games, Count: total})
	if err != nil {
		return nil, apperror.Internalf("failed to encode games", err)
	}
	return out, nil
}

// GetGame prefers the local row, then the upstream detail record.
func (s *catalogService) GetGame(ctx context.Context, id uint) (*model.Game, error) {
	game, err := s.games.FindByID(ctx, id)
	if err == nil {
		return game, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internalf("failed to fetch game", err)
	}

	remote, err := s.source.GetGame(ctx, id)
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			log.Warn().Err(err).Uint("game_id", id).Msg("catalog detail lookup failed")
		}
		return nil, apperror.New(apperror.NotFound, "game not found")
	}

	g := toLocalGame(*remote)
	return &g, nil
}

// Seed copies upstream pages into the local table. Existing ids are left untouched.
func (s *catalogService) Seed(ctx context.Context, pages, pageSize int) (int64, error) {
	var inserted int64
	for page := 1; page <= pages; page++ {
		remote, err := s.source.ListGames(ctx, page, pageSize)
		if err != nil {
			return inserted, apperror.Internalf(fmt.Sprintf("failed to fetch catalog page %d", page), err)
		}

		games := make([]model.Game, 0, len(remote))
		for _, g := range remote {
			local := toLocalGame(g)
			if local.Description == "" {
				local.Description = seedDescription
			}
			games = append(games, local)
		}

		n, err := s.games.UpsertBatch(ctx, games)
		if err != nil {
			return inserted, apperror.Internalf("failed to store catalog page", err)
		}
		inserted += n
		log.Info().Int("page", page).Int("fetched", len(remote)).Int64("inserted", n).Msg("catalog page stored")
	}
	return inserted, nil
}

func toLocalGame(g catalog.Game) model.Game {
	return model.Game{
		ID:          g.ID,
		Title:       g.Name,
		Description: g.DescriptionRaw,
		Genre:       g.GenreNames(),
		Platform:    g.PlatformNames(),
		ImageURL:    g.BackgroundImage,
		Released:    g.Released,
	}
}
