package handler

import (
	"gamelibrary/internal/access"
	"gamelibrary/internal/middleware"
	"gamelibrary/internal/model"
	"gamelibrary/internal/service"
	"gamelibrary/internal/validation"

	"github.com/gin-gonic/gin"
)

type LibraryHandler struct {
	libraryService service.LibraryService
	auditService   service.AuditService
	guard          *middleware.Guard
}

func NewLibraryHandler(libraryService service.LibraryService, auditService service.AuditService, guard *middleware.Guard) *LibraryHandler {
	validation.RegisterGin()
	return &LibraryHandler{libraryService: libraryService, auditService: auditService, guard: guard}
}

func (h *LibraryHandler) RegisterRoutes(router *gin.RouterGroup) {
	library := router.Group("/api/library")
	manageLibrary := h.guard.Require(access.PermissionRequired(service.PermManageLibrary))
	{
		library.GET("/:userId", h.guard.Require(access.OwnerOrAdmin(access.Param("userId"))), h.GetUserLibrary)
		library.GET("/entry/:id", h.guard.Require(access.Authenticated()), h.GetEntry)
		library.POST("",
			manageLibrary,
			middleware.Authorize(access.OwnerOrAdmin(access.Body("userId"), access.Body("user_id"))),
			middleware.LogActivity(model.ActionAddLibraryEntry, h.auditService),
			h.AddToLibrary,
		)
		library.PUT("/:id",
			manageLibrary,
			middleware.LogActivity(model.ActionUpdateLibrary, h.auditService),
			h.UpdateEntry,
		)
		library.DELETE("/:id",
			manageLibrary,
			middleware.LogActivity(model.ActionDeleteLibrary, h.auditService),
			h.DeleteEntry,
		)
	}
}

// GetUserLibrary lists a user's library, newest first
// @Summary      Get user library
// @Tags         library
// @Security     BearerAuth
// @Produce      json
// @Param        userId  path      int  true  "User ID"
// @Success      200     {object}  response.Response{data=[]model.LibraryEntry}
// @Failure      401     {object}  response.Response
// @Failure      403     {object}  response.Response
// @Router       /api/library/{userId} [get]
func (h *LibraryHandler) GetUserLibrary(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	entries, err := h.libraryService.GetUserLibrary(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, entries)
}

// GetEntry returns one library entry of the caller
// @Summary      Get library entry
// @Tags         library
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Entry ID"
// @Success      200  {object}  response.Response{data=model.LibraryEntry}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/library/entry/{id} [get]
func (h *LibraryHandler) GetEntry(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	caller, _ := middleware.CallerFrom(c)

	entry, err := h.libraryService.GetEntry(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, entry)
}

// AddToLibrary adds a catalog game to a user's library
// @Summary      Add game to library
// @Description  Accepts userId/user_id, gameId/game_id, titulo/title/name and imagen_url/image_url/background_image
// @Tags         library
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AddToLibraryRequest  true  "Library entry"
// @Success      201      {object}  response.Response{data=model.LibraryEntry}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/library [post]
func (h *LibraryHandler) AddToLibrary(c *gin.Context) {
	var req service.AddToLibraryRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, _ := middleware.CallerFrom(c)

	entry, err := h.libraryService.AddToLibrary(c.Request.Context(), caller, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, entry)
}

// UpdateEntry changes status and/or rating of a library entry
// @Summary      Update library entry
// @Tags         library
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                          true  "Entry ID"
// @Param        payload  body      service.UpdateEntryRequest   true  "Fields to change"
// @Success      200      {object}  response.Response{data=model.LibraryEntry}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/library/{id} [put]
func (h *LibraryHandler) UpdateEntry(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateEntryRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, _ := middleware.CallerFrom(c)

	entry, err := h.libraryService.UpdateEntry(c.Request.Context(), caller, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, entry)
}

// DeleteEntry removes a library entry and its reviews
// @Summary      Delete library entry
// @Tags         library
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Entry ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/library/{id} [delete]
func (h *LibraryHandler) DeleteEntry(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	caller, _ := middleware.CallerFrom(c)

	if err := h.libraryService.DeleteEntry(c.Request.Context(), caller, id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "game removed from library"})
}
