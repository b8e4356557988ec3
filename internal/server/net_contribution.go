package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	netcontributiondomain "github.com/smallbiznis/netcontrib/internal/netcontribution/domain"
)

func (s *Server) TriggerNetContribution(c *gin.Context) {
	resp, err := s.contribSvc.Trigger(c.Request.Context(), c.Param("name"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RunNetContributionBatch(c *gin.Context) {
	var req netcontributiondomain.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.contribSvc.ProcessBatch(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusOK
	if resp.RequiresConfirm {
		status = http.StatusAccepted
	}
	c.JSON(status, gin.H{"data": resp})
}
