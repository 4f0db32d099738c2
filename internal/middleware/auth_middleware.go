package middleware

import (
	"strings"

	"pawtraits/internal/models"
	"pawtraits/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	ContextSession  = "session"
	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
)

// AuthRequired validates the bearer token and stores the caller's Session in the context.
func AuthRequired(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, 401, utils.CodeUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			utils.ErrorResponse(c, 401, utils.CodeUnauthorized, "Bearer token required")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, jwtSecret)
		if err != nil {
			utils.ErrorResponse(c, 401, utils.CodeUnauthorized, utils.ErrInvalidToken)
			c.Abort()
			return
		}

		role := models.SessionRole(claims.Role)
		switch role {
		case models.SessionRoleCustomer, models.SessionRolePartner, models.SessionRoleInfluencer, models.SessionRoleAdmin:
		default:
			utils.ErrorResponse(c, 401, utils.CodeUnauthorized, "Unknown role in token")
			c.Abort()
			return
		}

		session := &models.Session{
			UserID:    claims.UserID,
			Role:      role,
			OwnerID:   claims.OwnerID,
			Email:     claims.Email,
			RequestID: c.GetString(ContextRequestID),
		}

		c.Set(ContextSession, session)
		c.Set(ContextUserID, claims.UserID.Hex())
		c.Set(ContextUserRole, string(role))

		c.Next()
	}
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}
		if !session.IsAdmin() {
			utils.ErrorResponse(c, 403, utils.CodeForbidden, "Admin access required")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetSession returns the Session stored by AuthRequired.
func GetSession(c *gin.Context) (*models.Session, bool) {
	value, exists := c.Get(ContextSession)
	if !exists {
		return nil, false
	}
	session, ok := value.(*models.Session)
	return session, ok && session != nil
}
