package handler

import (
	goerrors "errors"

	"github.com/gin-gonic/gin"

	"github.com/xorcism-go/internal/auth"
	"github.com/xorcism-go/internal/config"
	"github.com/xorcism-go/internal/errors"
	"github.com/xorcism-go/internal/keyring"
	"github.com/xorcism-go/internal/obfuscate"
)

// APIHandler handles /enc-api/* routes
type APIHandler struct {
	cfg     *config.Config
	jwtAuth *auth.JWTAuth
	userDAO *keyring.UserDAO
	keyDAO  *keyring.KeyDAO
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(cfg *config.Config, jwtAuth *auth.JWTAuth, userDAO *keyring.UserDAO, keyDAO *keyring.KeyDAO) *APIHandler {
	return &APIHandler{
		cfg:     cfg,
		jwtAuth: jwtAuth,
		userDAO: userDAO,
		keyDAO:  keyDAO,
	}
}

// Login handles user authentication
func (h *APIHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, errors.NewBadRequestWithCause("Invalid request", err))
		return
	}

	if err := h.userDAO.Validate(req.Username, req.Password); err != nil {
		RespondError(c, errors.NewUnauthorized("invalid credentials"))
		return
	}

	token, err := h.jwtAuth.GenerateToken(req.Username)
	if err != nil {
		RespondError(c, errors.NewInternalWithCause("failed to generate token", err))
		return
	}

	RespondSuccess(c, gin.H{
		"username": req.Username,
		"token":    token,
	})
}

// GetUserInfo returns current user info
func (h *APIHandler) GetUserInfo(c *gin.Context) {
	RespondSuccess(c, gin.H{
		"username": c.GetString("username"),
		"version":  config.Version,
		"schemes":  obfuscate.ListSchemes(),
	})
}

// UpdatePassword updates the authenticated user's password
func (h *APIHandler) UpdatePassword(c *gin.Context) {
	var req struct {
		Password    string `json:"password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, errors.NewBadRequestWithCause("Invalid request", err))
		return
	}
	if len(req.NewPassword) < 8 {
		RespondError(c, errors.NewBadRequest("password too short, at least 8 characters"))
		return
	}

	username := c.GetString("username")
	if err := h.userDAO.Validate(username, req.Password); err != nil {
		RespondError(c, errors.NewUnauthorized("invalid credentials"))
		return
	}
	if err := h.userDAO.UpdatePassword(username, req.NewPassword); err != nil {
		RespondError(c, errors.NewInternalWithCause("failed to update password", err))
		return
	}
	RespondSuccessMsg(c, "password updated")
}

// CreateKey stores a named key in the keyring
func (h *APIHandler) CreateKey(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
		Spec string `json:"spec" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, errors.NewBadRequestWithCause("Invalid request", err))
		return
	}

	key, err := h.keyDAO.Create(req.Name, req.Spec)
	if err != nil {
		switch {
		case goerrors.Is(err, keyring.ErrKeyExists):
			RespondError(c, errors.NewConflict("key already exists"))
		case goerrors.Is(err, obfuscate.ErrEmptyKey):
			RespondError(c, errors.NewBadRequest("key spec resolves to an empty key"))
		default:
			RespondError(c, errors.NewBadRequestWithCause("invalid key spec", err))
		}
		return
	}

	RespondSuccess(c, key)
}

// ListKeys returns all named keys. Specs are redacted to their scheme so the
// listing never leaks key material.
func (h *APIHandler) ListKeys(c *gin.Context) {
	keys, err := h.keyDAO.List()
	if err != nil {
		RespondError(c, errors.NewInternalWithCause("failed to list keys", err))
		return
	}

	type listedKey struct {
		Name      string `json:"name"`
		Scheme    string `json:"scheme"`
		CreatedAt string `json:"created_at"`
	}
	out := make([]listedKey, 0, len(keys))
	for _, k := range keys {
		out = append(out, listedKey{
			Name:      k.Name,
			Scheme:    specScheme(k.Spec),
			CreatedAt: k.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	RespondSuccess(c, out)
}

// DeleteKey removes a named key
func (h *APIHandler) DeleteKey(c *gin.Context) {
	name := c.Param("name")
	if err := h.keyDAO.Delete(name); err != nil {
		if goerrors.Is(err, keyring.ErrKeyNotFound) {
			RespondError(c, errors.NewNotFound("key not found"))
			return
		}
		RespondError(c, errors.NewInternalWithCause("failed to delete key", err))
		return
	}
	RespondSuccessMsg(c, "key deleted")
}

// specScheme reports the scheme prefix of a key spec, or "raw".
func specScheme(spec string) string {
	for _, s := range obfuscate.ListSchemes() {
		if len(spec) > len(s) && spec[:len(s)] == s && spec[len(s)] == ':' {
			return s
		}
	}
	return "raw"
}
