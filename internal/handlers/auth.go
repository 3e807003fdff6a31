package handlers

import (
	"errors"
	"net/http"

	"github.com/minhwang72/monsil-wedding/internal/config"
	"github.com/minhwang72/monsil-wedding/internal/middleware"
	"github.com/minhwang72/monsil-wedding/internal/models"
	"github.com/minhwang72/monsil-wedding/internal/services"
	"github.com/minhwang72/monsil-wedding/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	authService *services.AuthService
	config      *config.Config
}

func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		config:      cfg,
	}
}

// Login starts a cookie session and also returns a bearer token for
// clients that do not keep cookies.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.AdminLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	admin, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			logrus.WithFields(logrus.Fields{
				"username":  req.Username,
				"client_ip": c.ClientIP(),
			}).Warn("admin login failed")
			utils.Unauthorized(c, err.Error())
			return
		}
		logrus.WithError(err).Error("admin login error")
		utils.InternalError(c)
		return
	}

	token, expiresAt, err := utils.GenerateToken(admin.ID, admin.Username, h.config.JWT.Secret, h.config.JWT.ExpireHours)
	if err != nil {
		logrus.WithError(err).Error("token generation failed")
		utils.InternalError(c)
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionAdminID, admin.ID)
	session.Set(middleware.SessionUsername, admin.Username)
	if err := session.Save(); err != nil {
		logrus.WithError(err).Error("session save failed")
		utils.InternalError(c)
		return
	}

	logrus.WithField("username", admin.Username).Info("admin logged in")
	utils.SuccessWithMessage(c, "login successful", models.AdminLoginResponse{
		Admin:     admin,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		logrus.WithError(err).Error("session clear failed")
		utils.InternalError(c)
		return
	}
	utils.SuccessWithMessage(c, "logged out", nil)
}

func (h *AuthHandler) GetMe(c *gin.Context) {
	adminID := c.GetUint(middleware.ContextAdminID)

	admin, err := h.authService.GetAdminByID(c.Request.Context(), adminID)
	if err != nil {
		if errors.Is(err, services.ErrAdminNotFound) {
			utils.Error(c, http.StatusUnauthorized, "admin account no longer exists")
			return
		}
		utils.InternalError(c)
		return
	}
	utils.Success(c, admin)
}
