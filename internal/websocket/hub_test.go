package websocket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamelibrary/internal/model"
	"gamelibrary/internal/repository"
	"gamelibrary/internal/service"
	"gamelibrary/internal/testutil"
	"gamelibrary/internal/websocket"
)

func newServer(t *testing.T) (*httptest.Server, *websocket.Hub, *model.User, *model.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SeededDB(t)
	auth := service.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewRoleRepository(db),
		repository.NewTransactionManager(db),
		testutil.Issuer(),
		model.RoleAdmin,
	)
	ana := testutil.CreateUser(t, db, "Ana", "ana@example.com", model.RoleUser)
	bob := testutil.CreateUser(t, db, "Bob", "bob@example.com", model.RoleUser)

	ctx, cancel := context.WithCancel(context.Background())
	hub := websocket.NewHub()
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", websocket.ServeWs(hub, auth, nil))
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv, hub, ana, bob
}

func wsURL(srv *httptest.Server, tok string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + tok
}

func TestServeWsRejectsBadTokens(t *testing.T) {
	srv, _, _, _ := newServer(t)

	_, resp, err := gorilla.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = gorilla.DefaultDialer.Dial(wsURL(srv, "garbage"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPublishReachesOnlyTheOwner(t *testing.T) {
	srv, hub, ana, bob := newServer(t)

	anaConn, _, err := gorilla.DefaultDialer.Dial(wsURL(srv, testutil.TokenFor(t, ana)), nil)
	require.NoError(t, err)
	defer anaConn.Close()

	bobConn, _, err := gorilla.DefaultDialer.Dial(wsURL(srv, testutil.TokenFor(t, bob)), nil)
	require.NoError(t, err)
	defer bobConn.Close()

	// registration completes after the handshake, so keep publishing until a frame arrives
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				hub.PublishToUser(ana.ID, service.EventLibraryAdded, map[string]uint{"game_id": 42})
			}
		}
	}()

	require.NoError(t, anaConn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := anaConn.ReadMessage()
	require.NoError(t, err)

	var msg websocket.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, service.EventLibraryAdded, msg.Type)
	assert.NotZero(t, msg.Time)

	require.NoError(t, bobConn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = bobConn.ReadMessage()
	assert.Error(t, err)
}

func TestPublishAfterStopDoesNotBlock(t *testing.T) {
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	for i := 0; i < 1000; i++ {
		hub.PublishToUser(1, service.EventReviewCreated, nil)
	}
}
