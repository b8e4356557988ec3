package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	commissiondomain "github.com/smallbiznis/netcontrib/internal/commission/domain"
)

func (s *Server) SalesCommissionFilters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.reportSvc.FilterSchema()})
}

func (s *Server) RunSalesCommissionReport(c *gin.Context) {
	var query struct {
		FromDate    string `form:"from_date"`
		ToDate      string `form:"to_date"`
		Company     string `form:"company"`
		Customer    string `form:"customer"`
		SalesPerson string `form:"sales_person"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	filters := commissiondomain.Filters{
		Company:     strings.TrimSpace(query.Company),
		Customer:    strings.TrimSpace(query.Customer),
		SalesPerson: strings.TrimSpace(query.SalesPerson),
	}

	fromDate, err := parseOptionalTime(query.FromDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("from_date", "invalid_from_date", "invalid from_date"))
		return
	}
	if fromDate != nil {
		filters.FromDate = *fromDate
	}

	toDate, err := parseOptionalTime(query.ToDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("to_date", "invalid_to_date", "invalid to_date"))
		return
	}
	if toDate != nil {
		filters.ToDate = *toDate
	}

	report, err := s.reportSvc.Run(c.Request.Context(), filters)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}
