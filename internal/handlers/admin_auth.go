package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"trendhub/internal/auth"
	"trendhub/internal/middleware"
	"trendhub/internal/models"
)

type AdminRegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=30"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"firstName" binding:"required,max=50"`
	LastName  string `json:"lastName" binding:"required,max=50"`
}

type AdminLoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func tokenResponse(c *gin.Context, status int, route string, tokens *auth.Tokens, admin models.Admin) {
	token, expires, err := tokens.Issue(admin, time.Now())
	if err != nil {
		zap.L().Error("token generation failed", zap.String("route", route), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}
	c.JSON(status, gin.H{
		"token":     token,
		"expiresAt": expires,
		"admin":     admin,
	})
}

// Register bootstraps the first admin as super-admin. Once any admin exists
// further admins are created by the CLI.
func Register(admins AdminRepository, tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/register"
		defer handlePanic(c, route)

		var req AdminRegisterRequest
		if !bindJSON(c, route, &req) {
			return
		}
		ctx := c.Request.Context()

		existing, err := admins.Count(ctx)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		if existing > 0 {
			respondWithError(c, http.StatusForbidden, route, "registration is closed")
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		admin := models.Admin{
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: hash,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Role:         models.RoleSuperAdmin,
			Permissions:  models.DefaultPermissions(models.RoleSuperAdmin),
		}
		if err := admins.Create(ctx, &admin); err != nil {
			respondWithAppError(c, route, err)
			return
		}

		zap.L().Info("first admin registered", zap.String("admin", admin.ID.Hex()))
		tokenResponse(c, http.StatusCreated, route, tokens, admin)
	}
}

// Login checks credentials through the lockout guard. Email or username may
// be used as the login.
func Login(guard LoginGuard, tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/login"
		defer handlePanic(c, route)

		var req AdminLoginRequest
		if !bindJSON(c, route, &req) {
			return
		}
		login := req.Email
		if strings.TrimSpace(login) == "" {
			login = req.Username
		}

		admin, err := guard.Login(c.Request.Context(), login, req.Password)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		tokenResponse(c, http.StatusOK, route, tokens, admin)
	}
}

func GetMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/auth/me"
		defer handlePanic(c, route)

		admin, ok := middleware.Admin(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}
		c.JSON(http.StatusOK, gin.H{"admin": admin})
	}
}

// Logout is an acknowledgement only; tokens are stateless and expire on
// their own.
func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

func ChangePassword(admins AdminRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/auth/change-password"
		defer handlePanic(c, route)

		admin, ok := middleware.Admin(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}
		var req ChangePasswordRequest
		if !bindJSON(c, route, &req) {
			return
		}
		if !auth.CheckPassword(admin.PasswordHash, req.CurrentPassword) {
			respondWithError(c, http.StatusBadRequest, route, "current password is incorrect")
			return
		}

		hash, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		if err := admins.UpdatePassword(c.Request.Context(), admin.ID, hash); err != nil {
			respondWithAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "password updated"})
	}
}

type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,min=1,max=50"`
	LastName  *string `json:"lastName" binding:"omitempty,min=1,max=50"`
	Email     *string `json:"email" binding:"omitempty,email"`
}

func UpdateProfile(admins AdminRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/auth/profile"
		defer handlePanic(c, route)

		admin, ok := middleware.Admin(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}
		var req UpdateProfileRequest
		if !bindJSON(c, route, &req) {
			return
		}

		fields := bson.M{}
		if req.FirstName != nil {
			fields["firstName"] = strings.TrimSpace(*req.FirstName)
		}
		if req.LastName != nil {
			fields["lastName"] = strings.TrimSpace(*req.LastName)
		}
		if req.Email != nil {
			fields["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
		}
		if len(fields) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		updated, err := admins.UpdateProfile(c.Request.Context(), admin.ID, fields)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"admin": updated})
	}
}
