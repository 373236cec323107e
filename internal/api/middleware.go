package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/codriving-backend/internal/auth"
	"github.com/nekogravitycat/codriving-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/codriving-backend/internal/pkg/response"
	"github.com/nekogravitycat/codriving-backend/internal/user"
)

// RequireSystemAdmin ensures the authenticated user is a system admin.
// It MUST be used after auth.AuthRequired middleware.
func RequireSystemAdmin(userService user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.GetUserID(c)
		if userID == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", apperror.KindUnauthorized)
			return
		}

		u, err := userService.GetByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				abort(c, http.StatusUnauthorized, "user not found", apperror.KindUnauthorized)
				return
			}
			response.Error(c, err)
			c.Abort()
			return
		}

		if !u.IsSystemAdmin {
			abort(c, http.StatusForbidden, "forbidden: system admin access required", apperror.KindForbidden)
			return
		}

		c.Next()
	}
}

func abort(c *gin.Context, status int, msg string, kind apperror.Kind) {
	c.AbortWithStatusJSON(status, response.ErrorResponse{Error: msg, Kind: string(kind)})
}
