package handler

import (
	"strconv"

	"gamelibrary/internal/service"

	"github.com/gin-gonic/gin"
)

type GameHandler struct {
	catalogService service.CatalogService
}

func NewGameHandler(catalogService service.CatalogService) *GameHandler {
	return &GameHandler{catalogService: catalogService}
}

func (h *GameHandler) RegisterRoutes(router *gin.RouterGroup) {
	games := router.Group("/api/games")
	{
		games.GET("", h.Search)
		games.GET("/:id", h.GetGame)
	}
}

// Search proxies the catalog, falling back to locally stored games
// @Summary      Search games
// @Description  Returns one catalog page. When the catalog is unreachable the local games table is searched instead.
// @Tags         games
// @Produce      json
// @Param        search  query     string  false  "Title filter"
// @Param        page    query     int     false  "Page number (default 1)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/games [get]
func (h *GameHandler) Search(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	raw, err := h.catalogService.Search(c.Request.Context(), c.Query("search"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, raw)
}

// GetGame returns a single game
// @Summary      Get game
// @Tags         games
// @Produce      json
// @Param        id   path      int  true  "Game ID"
// @Success      200  {object}  response.Response{data=model.Game}
// @Failure      404  {object}  response.Response
// @Router       /api/games/{id} [get]
func (h *GameHandler) GetGame(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	game, err := h.catalogService.GetGame(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, game)
}
