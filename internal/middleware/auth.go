package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"trendhub/internal/apperr"
	"trendhub/internal/auth"
	"trendhub/internal/models"
)

const (
	ClaimsKey  = "claims"
	AdminIDKey = "adminId"
	AdminKey   = "admin"
)

// AdminLoader fetches the admin a token was issued to.
type AdminLoader interface {
	Get(ctx context.Context, id primitive.ObjectID) (models.Admin, error)
}

// AuthGuard validates the bearer token and stores its claims and admin id.
// Authorization is left to RequirePermission.
func AuthGuard(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := tokens.Parse(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		adminID, err := claims.AdminID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(AdminIDKey, adminID)
		c.Next()
	}
}

// RequirePermission loads the authenticated admin and checks the permission
// matrix for resource/action. Must run after AuthGuard.
func RequirePermission(admins AdminLoader, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := loadAdmin(c, admins)
		if !ok {
			return
		}
		if !admin.Can(resource, action) {
			zap.L().Warn("permission denied",
				zap.String("admin", admin.ID.Hex()),
				zap.String("resource", resource),
				zap.String("action", action),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

// CurrentAdmin makes the authenticated admin available to handlers without a
// permission check.
func CurrentAdmin(admins AdminLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := loadAdmin(c, admins); ok {
			c.Next()
		}
	}
}

func loadAdmin(c *gin.Context, admins AdminLoader) (models.Admin, bool) {
	if cached, ok := c.Get(AdminKey); ok {
		return cached.(models.Admin), true
	}

	id, ok := AdminID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return models.Admin{}, false
	}
	admin, err := admins.Get(c.Request.Context(), id)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return models.Admin{}, false
	case err != nil:
		zap.L().Error("loading admin failed", zap.String("admin", id.Hex()), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return models.Admin{}, false
	}
	if admin.Status != models.AdminActive {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account is not active"})
		return models.Admin{}, false
	}

	c.Set(AdminKey, admin)
	return admin, true
}

func AdminID(c *gin.Context) (primitive.ObjectID, bool) {
	v, ok := c.Get(AdminIDKey)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, ok := v.(primitive.ObjectID)
	return id, ok
}

func Admin(c *gin.Context) (models.Admin, bool) {
	v, ok := c.Get(AdminKey)
	if !ok {
		return models.Admin{}, false
	}
	a, ok := v.(models.Admin)
	return a, ok
}
