package middlewares

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-reservation/booking"
	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/utils"
	"gorm.io/gorm"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID      = "userID"
	ContextRoles       = "roles"
	ContextToken       = "token"
	ContextTokenExpiry = "tokenExpiry"
)

var (
	errAccountGone     = errors.New("account no longer exists")
	errAccountInactive = errors.New("account is not active")
)

// AuthMiddleware accepts a bearer token from the Authorization header, or
// from the token query parameter for websocket upgrades. The account is
// re-read on every request so role changes and deletions apply to tokens
// already issued.
func AuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, errors.New("authorization header missing"))
			return
		}

		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			utils.AbortWithError(c, http.StatusUnauthorized, err)
			return
		}

		var user models.User
		err = db.WithContext(c.Request.Context()).
			Select("id", "roles", "is_active").
			First(&user, claims.UserID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.AbortWithError(c, http.StatusUnauthorized, errAccountGone)
			return
		case err != nil:
			utils.ErrorLogger.WithError(err).WithField("user_id", claims.UserID).Error("load authenticated user")
			utils.AbortWithError(c, http.StatusInternalServerError, errors.New("internal server error"))
			return
		case !user.IsActive:
			utils.AbortWithError(c, http.StatusUnauthorized, errAccountInactive)
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextRoles, user.Roles)
		c.Set(ContextToken, tokenString)
		if claims.ExpiresAt != nil {
			c.Set(ContextTokenExpiry, claims.ExpiresAt.Time)
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
		return ""
	}
	return c.Query("token")
}

// ActorFromContext returns the authenticated caller. The second result is
// false outside AuthMiddleware.
func ActorFromContext(c *gin.Context) (booking.Actor, bool) {
	userID, ok := c.Get(ContextUserID)
	if !ok {
		return booking.Actor{}, false
	}
	id, ok := userID.(uint)
	if !ok || id == 0 {
		return booking.Actor{}, false
	}
	roles, _ := c.Get(ContextRoles)
	r, _ := roles.(models.Role)
	return booking.Actor{UserID: id, Roles: r}, true
}

// TokenFromContext returns the raw token and its expiry.
func TokenFromContext(c *gin.Context) (string, time.Time) {
	token := c.GetString(ContextToken)
	expiry := c.GetTime(ContextTokenExpiry)
	return token, expiry
}
