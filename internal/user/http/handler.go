package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/codriving-backend/internal/auth"
	"github.com/nekogravitycat/codriving-backend/internal/file"
	fileHttp "github.com/nekogravitycat/codriving-backend/internal/file/http"
	"github.com/nekogravitycat/codriving-backend/internal/pkg/response"
	"github.com/nekogravitycat/codriving-backend/internal/user"
)

var pictureTypes = []string{"image/jpeg", "image/png"}

type UserHandler struct {
	userService     user.Service
	fileService     file.Service
	fileHandler     *fileHttp.Handler
	jwtManager      *auth.JWTManager
	maxPictureBytes int64
}

func NewHandler(
	userService user.Service,
	fileService file.Service,
	jwtManager *auth.JWTManager,
	maxPictureBytes int64,
) *UserHandler {
	return &UserHandler{
		userService:     userService,
		fileService:     fileService,
		fileHandler:     fileHttp.NewHandler(fileService),
		jwtManager:      jwtManager,
		maxPictureBytes: maxPictureBytes,
	}
}

// Register creates a new account with the default credit balance.
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	u, err := h.userService.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, MeResponse{User: NewUserResponse(u)})
}

// Login authenticates a user and returns a JWT access token with the profile.
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	u, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwtManager.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.jwtManager.TTL().Seconds()),
		User:        NewUserResponse(u),
	})
}

// Me returns the authenticated user, including the current credit balance.
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.userService.GetByID(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, MeResponse{User: NewUserResponse(u)})
}

// UploadPicture replaces the authenticated user's profile picture.
func (h *UserHandler) UploadPicture(c *gin.Context) {
	userID := auth.GetUserID(c)

	h.fileHandler.HandleFileUpload(c, fileHttp.FileUploadConfig{
		MaxSizeBytes: h.maxPictureBytes,
		AllowedTypes: pictureTypes,
		AfterUpload: func(ctx context.Context, fileID string) error {
			previous, err := h.userService.SetPicture(ctx, userID, fileID)
			if err != nil {
				return err
			}
			if previous != nil && *previous != fileID {
				if err := h.fileService.Delete(ctx, *previous); err != nil {
					logrus.WithError(err).WithField("file_id", *previous).Warn("failed to delete previous picture")
				}
			}
			return nil
		},
	})
}
