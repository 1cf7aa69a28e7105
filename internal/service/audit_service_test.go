package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamelibrary/internal/model"
	"gamelibrary/internal/repository"
	"gamelibrary/internal/service"
	"gamelibrary/internal/testutil"
)

func TestAuditLogsFilterAndPage(t *testing.T) {
	ctx := context.Background()
	db := testutil.SeededDB(t)
	audit := service.NewAuditService(repository.NewAuditRepository(db))

	ana := testutil.CreateUser(t, db, "Ana", "ana@example.com", model.RoleUser)
	bob := testutil.CreateUser(t, db, "Bob", "bob@example.com", model.RoleUser)

	for _, e := range []model.AuditLog{
		{UserID: &ana.ID, Action: model.ActionLogin},
		{UserID: &ana.ID, Action: model.ActionAddLibraryEntry, EntityID: "42"},
		{UserID: &bob.ID, Action: model.ActionLogin},
		{Action: model.ActionRegister},
	} {
		entry := e
		require.NoError(t, audit.Record(ctx, &entry))
	}

	all, total, err := audit.GetAuditLogs(ctx, service.AuditQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, all, 2)
	assert.Equal(t, model.ActionRegister, all[0].Action)
	assert.Equal(t, "anonymous", all[0].UserName)

	logins, total, err := audit.GetAuditLogs(ctx, service.AuditQuery{Action: model.ActionLogin, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, logins, 2)

	anas, total, err := audit.GetAuditLogs(ctx, service.AuditQuery{UserID: &ana.ID, Action: model.ActionLogin, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, anas, 1)
	assert.Equal(t, "Ana", anas[0].UserName)

	none, total, err := audit.GetAuditLogs(ctx, service.AuditQuery{Action: model.ActionDeleteRole, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
