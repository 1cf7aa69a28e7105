// Package access holds the route requirements and the single interpreter that decides them.
package access

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gamelibrary/internal/apperror"
)

// Kind tags a Requirement.
type Kind int

const (
	KindAuthenticated Kind = iota
	KindRole
	KindPermission
	KindAnyPermission
	KindOwnerOrAdmin
)

func (k Kind) String() string {
	switch k {
	case KindRole:
		return "role"
	case KindPermission:
		return "permission"
	case KindAnyPermission:
		return "any_permission"
	case KindOwnerOrAdmin:
		return "owner_or_admin"
	default:
		return "authenticated"
	}
}

// SourceKind says where an owner id is read from.
type SourceKind int

const (
	FromParam SourceKind = iota
	FromBody
)

// Source names one place in the request that may carry the owner id.
type Source struct {
	Kind SourceKind
	Name string
}

// Param reads the owner id from a path parameter.
func Param(name string) Source { return Source{Kind: FromParam, Name: name} }

// Body reads the owner id from a top-level JSON body field.
func Body(name string) Source { return Source{Kind: FromBody, Name: name} }

func (s Source) String() string {
	if s.Kind == FromBody {
		return "body." + s.Name
	}
	return "param." + s.Name
}

// Requirement is the gate attached to a route. Build one with the constructors below.
type Requirement struct {
	Kind        Kind
	Role        string
	Permissions []string
	Sources     []Source
}

// Authenticated admits any authenticated caller.
func Authenticated() Requirement { return Requirement{Kind: KindAuthenticated} }

// RoleRequired admits callers whose role name equals role.
func RoleRequired(role string) Requirement { return Requirement{Kind: KindRole, Role: role} }

// PermissionRequired admits callers whose role holds permission.
func PermissionRequired(permission string) Requirement {
	return Requirement{Kind: KindPermission, Permissions: []string{permission}}
}

// AnyPermissionRequired admits callers whose role holds at least one of permissions.
func AnyPermissionRequired(permissions ...string) Requirement {
	return Requirement{Kind: KindAnyPermission, Permissions: permissions}
}

// OwnerOrAdmin admits administrators and callers whose id equals the owner id read from the
// first source that yields one.
func OwnerOrAdmin(sources ...Source) Requirement {
	return Requirement{Kind: KindOwnerOrAdmin, Sources: sources}
}

func (r Requirement) String() string {
	switch r.Kind {
	case KindRole:
		return "role(" + r.Role + ")"
	case KindPermission, KindAnyPermission:
		return r.Kind.String() + "(" + strings.Join(r.Permissions, ",") + ")"
	case KindOwnerOrAdmin:
		names := make([]string, len(r.Sources))
		for i, s := range r.Sources {
			names[i] = s.String()
		}
		return "owner_or_admin(" + strings.Join(names, ",") + ")"
	default:
		return r.Kind.String()
	}
}

// Capabilities is what a caller may do, resolved fresh for every request.
type Capabilities struct {
	UserID      uint
	Role        string
	Admin       bool
	Permissions map[string]struct{}
}

// NewCapabilities builds a Capabilities value from a permission list.
func NewCapabilities(userID uint, role string, admin bool, permissions []string) Capabilities {
	set := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		set[p] = struct{}{}
	}
	return Capabilities{UserID: userID, Role: role, Admin: admin, Permissions: set}
}

// Has reports whether the permission set contains name.
func (c Capabilities) Has(name string) bool {
	_, ok := c.Permissions[name]
	return ok
}

// Evaluate decides req for caps. ownerID is the id resolved from the requirement's sources,
// nil when none yielded one. It returns nil or an error of kind Unauthenticated or Forbidden.
func Evaluate(req Requirement, caps Capabilities, ownerID *uint) error {
	if caps.UserID == 0 {
		return apperror.ErrUnauthenticated
	}

	switch req.Kind {
	case KindAuthenticated:
		return nil

	case KindRole:
		if caps.Role == req.Role {
			return nil
		}
		return denied(fmt.Sprintf("access denied: role %s required", req.Role))

	case KindPermission:
		for _, p := range req.Permissions {
			if !caps.Has(p) {
				return denied("access denied: missing permission " + p)
			}
		}
		return nil

	case KindAnyPermission:
		for _, p := range req.Permissions {
			if caps.Has(p) {
				return nil
			}
		}
		return denied("access denied: requires one of " + strings.Join(req.Permissions, ", "))

	case KindOwnerOrAdmin:
		if caps.Admin {
			return nil
		}
		if ownerID == nil {
			return denied("access denied: resource owner could not be determined")
		}
		if *ownerID == caps.UserID {
			return nil
		}
		return denied("access denied: not the resource owner")
	}

	return denied("access denied")
}

func denied(message string) error {
	return apperror.New(apperror.Forbidden, message)
}

// ParseOwnerID accepts the shapes an id takes in a path segment or decoded JSON.
func ParseOwnerID(v any) (uint, bool) {
	switch x := v.(type) {
	case float64:
		if x <= 0 || x != float64(uint(x)) {
			return 0, false
		}
		return uint(x), true
	case string:
		id, err := strconv.ParseUint(strings.TrimSpace(x), 10, 64)
		if err != nil || id == 0 {
			return 0, false
		}
		return uint(id), true
	case uint:
		return x, x != 0
	case int:
		return uint(x), x > 0
	}
	return 0, false
}

// Caller is the authenticated user attached to a request.
type Caller struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Admin       bool     `json:"-"`
	Permissions []string `json:"permissions"`
}

// Capabilities of the caller.
func (c Caller) Capabilities() Capabilities {
	return NewCapabilities(c.ID, c.Role, c.Admin, c.Permissions)
}

type callerKey struct{}

// WithCaller stores the caller in ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller stored in ctx.
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}
