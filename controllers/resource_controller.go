package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tomcat-devloop/internal/models"
	"tomcat-devloop/internal/rpc"
	"tomcat-devloop/services"
)

type ResourceController struct {
	rt *services.Runtime
}

func NewResourceController(rt *services.Runtime) *ResourceController {
	return &ResourceController{rt: rt}
}

func (rc *ResourceController) RegisterRoutes(r *gin.Engine) {
	r.POST(rpc.APIPrefix+"/resources/sync", rc.Sync)
}

// @Summary 同步静态资源
// @Tags Resources
// @Success 200 {object} models.SyncReport
// @Failure 404 {object} models.ErrorResponse
// @Router /devloop/api/v1/resources/sync [post]
func (rc *ResourceController) Sync(c *gin.Context) {
	var report models.SyncReport
	err := rc.rt.Exclusive(func() error {
		var err error
		report, err = rc.rt.Resources.Sync(c.Request.Context())
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
