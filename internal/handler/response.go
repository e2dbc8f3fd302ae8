package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/xorcism-go/internal/errors"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

// RespondError writes a JSON error response with logging
func RespondError(c *gin.Context, err error) {
	var appErr *errors.AppError
	var ok bool
	if appErr, ok = err.(*errors.AppError); !ok {
		appErr = errors.NewInternalWithCause("Internal server error", err)
	}

	if appErr.Cause != nil {
		log.Error().Err(appErr.Cause).Msg(appErr.Message)
	} else {
		log.Error().Msg(appErr.Message)
	}

	c.AbortWithStatusJSON(appErr.HTTPStatus, APIResponse{
		Code: int(appErr.Code),
		Msg:  appErr.Message,
	})
}

// RespondSuccess writes a JSON success response
func RespondSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Code: 0,
		Data: data,
	})
}

// RespondSuccessMsg writes a JSON success response with a message
func RespondSuccessMsg(c *gin.Context, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Code: 0,
		Msg:  message,
	})
}
