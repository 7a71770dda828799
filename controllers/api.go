package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tomcat-devloop/internal/config"
	"tomcat-devloop/internal/middleware"
	"tomcat-devloop/internal/models"
	"tomcat-devloop/internal/output"
	"tomcat-devloop/internal/rpc"
	"tomcat-devloop/services"
)

type APIController struct {
	rt      *services.Runtime
	buffer  *output.BufferSink
	version string
}

/**
 * Create new API controller instance
 * @param {*services.Runtime} rt - Runtime of the served workspace
 * @param {*output.BufferSink} buffer - Output stream exposed by the output endpoint
 * @param {string} version - Reported by the health endpoint
 * @returns {*APIController} New API controller instance
 */
func NewAPIController(rt *services.Runtime, buffer *output.BufferSink, version string) *APIController {
	return &APIController{
		rt:      rt,
		buffer:  buffer,
		version: version,
	}
}

/**
 * Register system routes to Gin engine
 * @param {*gin.Engine} r - Gin router instance
 * @description
 * - /healthz and /metrics at the root
 * - reload, settings and output under the API prefix
 */
func (a *APIController) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", a.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST(rpc.APIPrefix+"/reload", a.ReloadConfig)
	r.POST(rpc.APIPrefix+"/settings", a.SetSetting)
	r.GET(rpc.APIPrefix+"/output", a.Output)
	r.POST(rpc.APIPrefix+"/metrics/push", a.PushMetrics)
}

// @Summary 重新加载配置
// @Description 重新加载工具配置和工作区配置
// @Tags Config
// @Success 200 {object} models.OperationResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /devloop/api/v1/reload [post]
func (a *APIController) ReloadConfig(c *gin.Context) {
	if err := config.ReloadConfig(); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:  "config.reload_failed",
			Error: "Failed to reload configuration: " + err.Error(),
		})
		return
	}
	if err := a.rt.Reload(); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:  "config.reload_failed",
			Error: "Failed to reload workspace settings: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, models.OperationResponse{
		Operation: "reload",
		Success:   true,
		Message:   "Configuration reloaded successfully",
	})
}

// @Summary 设置工作区配置项
// @Tags Config
// @Accept json
// @Param body body models.SettingsRequest true "配置项"
// @Success 200 {object} models.OperationResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /devloop/api/v1/settings [post]
func (a *APIController) SetSetting(c *gin.Context) {
	var req models.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Code: "request.invalid", Error: err.Error()})
		return
	}
	scope := config.Scope(req.Scope)
	if scope == "" {
		scope = config.ScopeWorkspace
	}
	respondOperation(c, "settings", a.rt.SetSetting(req.Key, req.Value, scope))
}

// @Summary 读取输出流
// @Description 返回offset之后的输出行，以及下次轮询使用的offset
// @Tags System
// @Param offset query int false "起始行号"
// @Success 200 {object} models.OutputResponse
// @Router /devloop/api/v1/output [get]
func (a *APIController) Output(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	lines, next := a.buffer.Lines(offset)
	if lines == nil {
		lines = []string{}
	}
	c.JSON(http.StatusOK, models.OutputResponse{Lines: lines, Next: next})
}

// @Summary 推送指标
// @Description 将守护进程的指标推送到Pushgateway，addr为空时使用配置文件中的地址
// @Tags System
// @Accept json
// @Param body body models.PushRequest false "Pushgateway地址"
// @Success 200 {object} models.OperationResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /devloop/api/v1/metrics/push [post]
func (a *APIController) PushMetrics(c *gin.Context) {
	var req models.PushRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Code: "request.invalid", Error: err.Error()})
			return
		}
	}
	if req.Addr == "" {
		req.Addr = config.Config.Metrics.Pushgateway
	}
	respondOperation(c, "metrics.push", services.PushMetrics(req.Addr, a.rt.WorkspaceDir()))
}

// @Summary 业务就绪探针
// @Description 返回服务版本、启动时间、应用服务器状态和请求统计
// @Tags System
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /healthz [get]
func (a *APIController) Healthz(c *gin.Context) {
	start := a.rt.StartTime()
	c.JSON(http.StatusOK, models.HealthResponse{
		Version:   a.version,
		StartTime: start.Format(time.RFC3339),
		Status:    "UP",
		Uptime:    time.Since(start).Round(time.Second).String(),
		Workspace: a.rt.WorkspaceDir(),
		Server:    a.rt.Server.State(),
		Metrics: models.Metrics{
			TotalRequests: middleware.GetTotalRequests(),
			ErrorRequests: middleware.GetErrorRequests(),
		},
	})
}
