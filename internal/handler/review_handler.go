package handler

import (
	"gamelibrary/internal/access"
	"gamelibrary/internal/middleware"
	"gamelibrary/internal/model"
	"gamelibrary/internal/service"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	reviewService service.ReviewService
	auditService  service.AuditService
	guard         *middleware.Guard
}

func NewReviewHandler(reviewService service.ReviewService, auditService service.AuditService, guard *middleware.Guard) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, auditService: auditService, guard: guard}
}

func (h *ReviewHandler) RegisterRoutes(router *gin.RouterGroup) {
	reviews := router.Group("/api/reviews")
	{
		reviews.GET("/game/:gameId", h.ListByGame)
		reviews.GET("/user/:userId", h.guard.Require(access.Authenticated()), h.ListByUser)
		reviews.GET("/check/:userId/:entryId", h.guard.Require(access.OwnerOrAdmin(access.Param("userId"))), h.HasReviewed)
		reviews.POST("",
			h.guard.Require(access.PermissionRequired(service.PermCreateReview)),
			middleware.LogActivity(model.ActionCreateReview, h.auditService),
			h.CreateReview,
		)
		reviews.PUT("/:id",
			h.guard.Require(access.AnyPermissionRequired(service.PermEditReview)),
			middleware.LogActivity(model.ActionUpdateReview, h.auditService),
			h.UpdateReview,
		)
		reviews.DELETE("/:id",
			h.guard.Require(access.AnyPermissionRequired(service.PermDeleteReview)),
			middleware.LogActivity(model.ActionDeleteReview, h.auditService),
			h.DeleteReview,
		)
	}
}

// ListByGame lists a game's reviews with the average rating
// @Summary      Reviews of a game
// @Tags         reviews
// @Produce      json
// @Param        gameId  path      int  true  "Game ID"
// @Success      200     {object}  response.Response{data=service.GameReviews}
// @Router       /api/reviews/game/{gameId} [get]
func (h *ReviewHandler) ListByGame(c *gin.Context) {
	gameID, ok := pathID(c, "gameId")
	if !ok {
		return
	}

	res, err := h.reviewService.ListByGame(c.Request.Context(), gameID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res)
}

// ListByUser lists the reviews written by a user
// @Summary      Reviews by a user
// @Tags         reviews
// @Security     BearerAuth
// @Produce      json
// @Param        userId  path      int  true  "User ID"
// @Success      200     {object}  response.Response{data=[]model.ReviewDetail}
// @Failure      401     {object}  response.Response
// @Router       /api/reviews/user/{userId} [get]
func (h *ReviewHandler) ListByUser(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	res, err := h.reviewService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res)
}

// HasReviewed reports whether the user already reviewed a library entry
// @Summary      Check review
// @Tags         reviews
// @Security     BearerAuth
// @Produce      json
// @Param        userId   path      int  true  "User ID"
// @Param        entryId  path      int  true  "Library entry ID"
// @Success      200      {object}  response.Response{data=object}
// @Failure      403      {object}  response.Response
// @Router       /api/reviews/check/{userId}/{entryId} [get]
func (h *ReviewHandler) HasReviewed(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	entryID, ok := pathID(c, "entryId")
	if !ok {
		return
	}

	reviewed, err := h.reviewService.HasReviewed(c.Request.Context(), userID, entryID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"has_reviewed": reviewed})
}

// CreateReview reviews a game in the caller's library
// @Summary      Create review
// @Tags         reviews
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateReviewRequest  true  "Review"
// @Success      201      {object}  response.Response{data=model.Review}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/reviews [post]
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req service.CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, _ := middleware.CallerFrom(c)

	review, err := h.reviewService.CreateReview(c.Request.Context(), caller, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, review)
}

// UpdateReview changes rating and comment of the caller's review
// @Summary      Update review
// @Tags         reviews
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                          true  "Review ID"
// @Param        payload  body      service.UpdateReviewRequest  true  "Review"
// @Success      200      {object}  response.Response{data=model.Review}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/reviews/{id} [put]
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateReviewRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, _ := middleware.CallerFrom(c)

	review, err := h.reviewService.UpdateReview(c.Request.Context(), caller, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, review)
}

// DeleteReview removes the caller's review
// @Summary      Delete review
// @Tags         reviews
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Review ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/reviews/{id} [delete]
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	caller, _ := middleware.CallerFrom(c)

	if err := h.reviewService.DeleteReview(c.Request.Context(), caller, id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "review deleted"})
}
