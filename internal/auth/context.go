package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserID   = "user_id"
	CtxEmail    = "email"
	CtxProvider = "auth_provider"
)

// UserID extracts the authenticated user id from the Gin context.
// This is set by middleware.RequireUser.
func UserID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserID))
}

// UserEmail returns the caller's email claim, if the token carried one.
func UserEmail(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxEmail))
}

// SetIdentity stores a verified identity on the Gin context.
func SetIdentity(c *gin.Context, id *Identity) {
	c.Set(CtxUserID, id.UID)
	if id.Email != "" {
		c.Set(CtxEmail, id.Email)
	}
	c.Set(CtxProvider, id.Provider)
}

// CurrentIdentity rebuilds the identity stored by SetIdentity. ok is false when
// the request is unauthenticated.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	uid := UserID(c)
	if uid == "" {
		return Identity{}, false
	}
	return Identity{UID: uid, Email: UserEmail(c), Provider: c.GetString(CtxProvider)}, true
}
