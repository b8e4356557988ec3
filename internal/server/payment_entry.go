package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	paymententrydomain "github.com/smallbiznis/netcontrib/internal/paymententry/domain"
)

func (s *Server) ListPaymentEntries(c *gin.Context) {
	var query struct {
		PaymentType string `form:"payment_type"`
		DocStatus   string `form:"docstatus"`
		PostedFrom  string `form:"posted_from"`
		PostedTo    string `form:"posted_to"`
		Limit       int    `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := paymententrydomain.ListRequest{Limit: query.Limit}

	if paymentType := strings.TrimSpace(query.PaymentType); paymentType != "" {
		pt := paymententrydomain.PaymentType(paymentType)
		if pt != paymententrydomain.PaymentTypeReceive && pt != paymententrydomain.PaymentTypePay {
			AbortWithError(c, newValidationError("payment_type", "invalid_payment_type", "invalid payment_type"))
			return
		}
		req.PaymentType = &pt
	}

	if docStatus := strings.TrimSpace(query.DocStatus); docStatus != "" {
		parsed, err := strconv.Atoi(docStatus)
		if err != nil || parsed < 0 || parsed > 2 {
			AbortWithError(c, newValidationError("docstatus", "invalid_docstatus", "invalid docstatus"))
			return
		}
		ds := paymententrydomain.DocStatus(parsed)
		req.DocStatus = &ds
	}

	postedFrom, err := parseOptionalTime(query.PostedFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("posted_from", "invalid_posted_from", "invalid posted_from"))
		return
	}
	req.PostedFrom = postedFrom

	postedTo, err := parseOptionalTime(query.PostedTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("posted_to", "invalid_posted_to", "invalid posted_to"))
		return
	}
	req.PostedTo = postedTo

	resp, err := s.entrySvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Entries})
}

func (s *Server) GetPaymentEntry(c *gin.Context) {
	entry, err := s.entrySvc.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entry})
}

type updateReferenceRequest struct {
	ReferenceID     *string  `json:"reference_id"`
	AllocatedAmount *float64 `json:"allocated_amount"`
}

func (s *Server) UpdatePaymentEntryReference(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 {
		AbortWithError(c, newValidationError("idx", "invalid_idx", "invalid row index"))
		return
	}

	var req updateReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.ReferenceID == nil && req.AllocatedAmount == nil {
		AbortWithError(c, newValidationError("request", "empty_update", "no fields to update"))
		return
	}

	entry, err := s.entrySvc.UpdateReference(c.Request.Context(), paymententrydomain.UpdateReferenceRequest{
		EntryName:       c.Param("name"),
		RowIdx:          idx,
		ReferenceID:     req.ReferenceID,
		AllocatedAmount: req.AllocatedAmount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entry})
}

type setDeductionsRequest struct {
	Deductions []paymententrydomain.DeductionInput `json:"deductions"`
}

func (s *Server) SetPaymentEntryDeductions(c *gin.Context) {
	var req setDeductionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	entry, err := s.entrySvc.SetDeductions(c.Request.Context(), paymententrydomain.SetDeductionsRequest{
		EntryName:  c.Param("name"),
		Deductions: req.Deductions,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entry})
}

func (s *Server) RecomputePaymentEntry(c *gin.Context) {
	entry, err := s.entrySvc.Recompute(c.Request.Context(), c.Param("name"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entry})
}
