package handler

import (
	"strconv"
	"strings"

	"gamelibrary/internal/access"
	"gamelibrary/internal/apperror"
	"gamelibrary/internal/middleware"
	"gamelibrary/internal/service"
	"gamelibrary/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	guard        *middleware.Guard
}

func NewAuditHandler(auditService service.AuditService, guard *middleware.Guard) *AuditHandler {
	return &AuditHandler{auditService: auditService, guard: guard}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/audit-logs")
	group.Use(h.guard.Require(access.PermissionRequired(service.PermViewAuditLog)))
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs returns one page of audit records, newest first
// @Summary      Get audit logs
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Number of items per page (default 20)"
// @Param        user_id  query     int     false  "Only records of this user"
// @Param        action   query     string  false  "Only records of this action, e.g. LOGIN"
// @Success      200    {object}  response.Response{data=pagination.Page[service.AuditLogResponse]}
// @Failure      403    {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)
	q := service.AuditQuery{
		Action: strings.ToUpper(strings.TrimSpace(c.Query("action"))),
		Page:   params.Page,
		Limit:  params.Limit,
	}
	if raw := c.Query("user_id"); raw != "" {
		userID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, apperror.New(apperror.Validation, "invalid user_id"))
			return
		}
		id := uint(userID)
		q.UserID = &id
	}

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, pagination.NewPage(logs, total, params))
}
