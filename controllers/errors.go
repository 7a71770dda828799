package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tomcat-devloop/internal/config"
	"tomcat-devloop/internal/models"
	"tomcat-devloop/services"
)

// errorStatus 将业务错误映射为HTTP状态码和错误代码
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrAlreadyRunning):
		return http.StatusConflict, "server.already_running"
	case errors.Is(err, services.ErrConfigurationMissing):
		return http.StatusPreconditionFailed, "config.missing"
	case errors.Is(err, services.ErrArtifactNotFound):
		return http.StatusNotFound, "artifact.not_found"
	case errors.Is(err, services.ErrProcessTimeout):
		return http.StatusGatewayTimeout, "process.timeout"
	case errors.Is(err, services.ErrUnknownVerb), errors.Is(err, config.ErrUnknownKey):
		return http.StatusBadRequest, "request.invalid"
	case errors.Is(err, services.ErrServerStillRunning):
		return http.StatusInternalServerError, "server.still_running"
	default:
		return http.StatusInternalServerError, "operation.failed"
	}
}

func respondError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	c.JSON(status, models.ErrorResponse{Code: code, Error: err.Error()})
}

func respondOperation(c *gin.Context, operation string, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OperationResponse{Operation: operation, Success: true})
}
