package service

import (
	"context"

	"gamelibrary/internal/apperror"
	"gamelibrary/internal/model"
	"gamelibrary/internal/repository"
)

type AuditLogResponse struct {
	ID         uint   `json:"id"`
	UserID     *uint  `json:"user_id"`
	UserName   string `json:"user_name"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	IP         string `json:"ip"`
	CreatedAt  string `json:"created_at"`
}

// AuditQuery selects a page of audit records. UserID and Action are optional filters.
type AuditQuery struct {
	UserID *uint
	Action string
	Page   int
	Limit  int
}

type AuditService interface {
	Record(ctx context.Context, entry *model.AuditLog) error
	GetAuditLogs(ctx context.Context, q AuditQuery) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) Record(ctx context.Context, entry *model.AuditLog) error {
	return s.repo.Append(ctx, entry)
}

// GetAuditLogs returns one page, newest first, with the acting user's name.
func (s *auditService) GetAuditLogs(ctx context.Context, q AuditQuery) ([]AuditLogResponse, int64, error) {
	filter := repository.AuditFilter{UserID: q.UserID, Action: q.Action}
	logs, total, err := s.repo.Find(ctx, filter, q.Page, q.Limit)
	if err != nil {
		return nil, 0, apperror.Internalf("failed to fetch audit logs", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		name := "anonymous"
		if l.User != nil {
			name = l.User.Name
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID,
			UserID:     l.UserID,
			UserName:   name,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			IP:         l.IP,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}
