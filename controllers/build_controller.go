package controllers

import (
	"github.com/gin-gonic/gin"

	"tomcat-devloop/internal/rpc"
	"tomcat-devloop/services"
)

type BuildController struct {
	rt *services.Runtime
}

func NewBuildController(rt *services.Runtime) *BuildController {
	return &BuildController{rt: rt}
}

func (b *BuildController) RegisterRoutes(r *gin.Engine) {
	r.POST(rpc.APIPrefix+"/build/:verb", b.Run)
}

// @Summary 执行构建
// @Description 执行compile/clean/package/rebuild，阻塞直到Maven结束
// @Tags Build
// @Param verb path string true "compile|clean|package|rebuild"
// @Success 200 {object} models.OperationResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 412 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Router /devloop/api/v1/build/{verb} [post]
func (b *BuildController) Run(c *gin.Context) {
	verb, err := services.ParseVerb(c.Param("verb"))
	if err != nil {
		respondError(c, err)
		return
	}
	err = b.rt.Exclusive(func() error {
		return b.rt.Build.Run(c.Request.Context(), verb)
	})
	respondOperation(c, "build "+string(verb), err)
}
