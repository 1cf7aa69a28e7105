package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"gamelibrary/internal/access"
	"gamelibrary/internal/apperror"
	"gamelibrary/internal/service"
	"gamelibrary/internal/token"
	"gamelibrary/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	callerKey = "caller"
	bodyKey   = "owner_body"

	maxOwnerBody = 1 << 20
)

// Guard authenticates requests and evaluates route requirements.
type Guard struct {
	auth service.AuthService
}

func NewGuard(auth service.AuthService) *Guard {
	return &Guard{auth: auth}
}

// Authenticate resolves the bearer token into an access.Caller stored on both the gin
// context and the request context.
func (g *Guard) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.authenticate(c) {
			c.Next()
		}
	}
}

// Require authenticates the request and then evaluates req against the caller.
func (g *Guard) Require(req access.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.authenticate(c) && authorize(c, req) {
			c.Next()
		}
	}
}

// Authorize evaluates req against the caller attached by Authenticate.
func Authorize(req access.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authorize(c, req) {
			c.Next()
		}
	}
}

func (g *Guard) authenticate(c *gin.Context) bool {
	if _, ok := CallerFrom(c); ok {
		return true
	}

	tokenString, err := token.FromHeader(c.GetHeader("Authorization"))
	if err != nil {
		abort(c, err)
		return false
	}

	caller, err := g.auth.ResolveCaller(c.Request.Context(), tokenString)
	if err != nil {
		if apperror.KindOf(err) == apperror.Internal {
			log.Error().Err(err).Str("path", c.FullPath()).Msg("failed to resolve caller")
		}
		abort(c, err)
		return false
	}

	c.Set(callerKey, caller)
	c.Request = c.Request.WithContext(access.WithCaller(c.Request.Context(), caller))
	return true
}

func authorize(c *gin.Context, req access.Requirement) bool {
	caller, ok := CallerFrom(c)
	if !ok {
		abort(c, apperror.ErrUnauthenticated)
		return false
	}

	var ownerID *uint
	if req.Kind == access.KindOwnerOrAdmin && !caller.Admin {
		ownerID = resolveOwner(c, req.Sources)
	}

	if err := access.Evaluate(req, caller.Capabilities(), ownerID); err != nil {
		log.Warn().
			Uint("user_id", caller.ID).
			Str("role", caller.Role).
			Str("requirement", req.String()).
			Str("path", c.FullPath()).
			Msg("access denied")
		abort(c, err)
		return false
	}
	return true
}

// CallerFrom returns the caller attached by Authenticate.
func CallerFrom(c *gin.Context) (access.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return access.Caller{}, false
	}
	caller, ok := v.(access.Caller)
	return caller, ok
}

// resolveOwner returns the id from the first source that yields one.
func resolveOwner(c *gin.Context, sources []access.Source) *uint {
	for _, src := range sources {
		var raw any
		switch src.Kind {
		case access.FromParam:
			if v := c.Param(src.Name); v != "" {
				raw = v
			}
		case access.FromBody:
			raw = jsonBody(c)[src.Name]
		}

		if id, ok := access.ParseOwnerID(raw); ok {
			return &id
		}
	}
	return nil
}

// jsonBody decodes the request body once and puts the bytes back for the handler.
// Bodies over maxOwnerBody are dropped and yield no fields.
func jsonBody(c *gin.Context) map[string]any {
	if v, ok := c.Get(bodyKey); ok {
		return v.(map[string]any)
	}

	fields := map[string]any{}
	if c.Request.Body != nil {
		data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxOwnerBody))
		_ = c.Request.Body.Close()
		if err != nil {
			log.Warn().Err(err).Str("path", c.FullPath()).Msg("request body not readable for owner check")
			data = nil
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(data))
		if len(data) > 0 {
			_ = json.Unmarshal(data, &fields)
		}
	}

	c.Set(bodyKey, fields)
	return fields
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(response.FromError(err))
}
