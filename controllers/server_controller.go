package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tomcat-devloop/internal/debugattach"
	"tomcat-devloop/internal/logger"
	"tomcat-devloop/internal/models"
	"tomcat-devloop/internal/rpc"
	"tomcat-devloop/services"
)

type ServerController struct {
	rt *services.Runtime
}

func NewServerController(rt *services.Runtime) *ServerController {
	return &ServerController{rt: rt}
}

func (s *ServerController) RegisterRoutes(r *gin.Engine) {
	group := r.Group(rpc.APIPrefix + "/server")
	group.POST("/start", s.Start)
	group.POST("/stop", s.Stop)
	group.GET("/status", s.Status)
	group.POST("/context", s.Context)
	group.POST("/check", s.Check)
	group.GET("/processes", s.Processes)
}

// @Summary 启动Tomcat
// @Description 注册上下文并以JPDA模式启动Tomcat，成功后生成调试配置
// @Tags Server
// @Success 200 {object} models.OperationResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /devloop/api/v1/server/start [post]
func (s *ServerController) Start(c *gin.Context) {
	// 请求在稳定期内断开会结束新启动的进程
	err := s.rt.Exclusive(func() error {
		return s.rt.Server.Start(c.Request.Context())
	})
	if err == nil {
		if written, werr := debugattach.WriteLaunchConfig(s.rt.WorkspaceDir(), s.rt.Workspace); werr != nil {
			logger.Warnf("Write debug configuration failed: %v", werr)
		} else if written {
			s.rt.Sink.AppendLine("Debug configuration created: " + debugattach.LaunchPath(s.rt.WorkspaceDir()))
		}
	}
	respondOperation(c, "server start", err)
}

// @Summary 停止Tomcat
// @Tags Server
// @Success 200 {object} models.OperationResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /devloop/api/v1/server/stop [post]
func (s *ServerController) Stop(c *gin.Context) {
	err := s.rt.Exclusive(func() error {
		return s.rt.Server.Stop(c.Request.Context())
	})
	respondOperation(c, "server stop", err)
}

// @Summary 查询Tomcat状态
// @Tags Server
// @Success 200 {object} models.ServerStatus
// @Router /devloop/api/v1/server/status [get]
func (s *ServerController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, s.rt.Server.Status())
}

// @Summary 注册上下文文件
// @Tags Server
// @Success 200 {object} models.OperationResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /devloop/api/v1/server/context [post]
func (s *ServerController) Context(c *gin.Context) {
	var file string
	err := s.rt.Exclusive(func() error {
		var err error
		file, err = s.rt.Server.RegisterContext()
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OperationResponse{Operation: "server context", Success: true, Message: file})
}

// @Summary 检查开发环境
// @Tags Server
// @Success 200 {object} models.OperationResponse
// @Failure 412 {object} models.ErrorResponse
// @Router /devloop/api/v1/server/check [post]
func (s *ServerController) Check(c *gin.Context) {
	err := s.rt.Exclusive(s.rt.Server.CheckEnvironment)
	respondOperation(c, "server check", err)
}

// @Summary 列出Tomcat进程
// @Tags Server
// @Success 200 {array} models.DiscoveredProcess
// @Router /devloop/api/v1/server/processes [get]
func (s *ServerController) Processes(c *gin.Context) {
	c.JSON(http.StatusOK, s.rt.Server.Processes(c.Request.Context()))
}
