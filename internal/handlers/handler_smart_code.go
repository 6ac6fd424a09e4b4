package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/hera_engine/internal/core/smartcode"
	"github.com/SscSPs/hera_engine/internal/dto"
)

// checkSmartCode godoc
// @Summary Check a smart code
// @Description Reports whether a code follows HERA.<MODULE>.<SEGMENT>...V<n>, and why not.
// @Tags smart-codes
// @Produce  json
// @Param   code path string true "Smart code" example(HERA.CRM.CUST.ENT.PROF.V1)
// @Success 200 {object} dto.Envelope{data=smartcode.Report}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /smart-codes/{code} [get]
func checkSmartCode(c *gin.Context) {
	c.JSON(http.StatusOK, dto.OK(smartcode.Inspect(c.Param("code"))))
}

func registerSmartCodeRoutes(rg *gin.RouterGroup) {
	rg.GET("/smart-codes/:code", checkSmartCode)
}
