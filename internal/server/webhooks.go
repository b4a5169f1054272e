package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	completiondomain "github.com/solventlabs/solvent/internal/completion/domain"
	memberdomain "github.com/solventlabs/solvent/internal/member/domain"
	"go.uber.org/zap"
)

type paymentWebhookRequest struct {
	OrderID      string `json:"order_id"`
	OrderNo      string `json:"order_no"`
	Reference    string `json:"reference"`
	Status       string `json:"status" binding:"required"`
	PaidAt       string `json:"paid_at"`
	MemberID     string `json:"member_id"`
	MemberName   string `json:"member_name"`
	MemberEmail  string `json:"member_email"`
	MemberPhone  string `json:"member_phone"`
	ReferralCode string `json:"referral_code"`

	Address *addressRequest `json:"address"`
}

type addressRequest struct {
	Recipient  string `json:"recipient"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postal_code"`
}

func (a *addressRequest) toInput() *memberdomain.AddressInput {
	if a == nil {
		return nil
	}
	return &memberdomain.AddressInput{
		Recipient:  a.Recipient,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		Province:   a.Province,
		PostalCode: a.PostalCode,
	}
}

func (s *Server) handlePaymentWebhook(c *gin.Context) {
	provider := strings.TrimSpace(c.Param("provider"))

	var req paymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if req.OrderID == "" && req.OrderNo == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	// Providers also notify on failures; only a settled payment runs the
	// pipeline.
	if !strings.EqualFold(req.Status, "paid") && !strings.EqualFold(req.Status, "success") {
		s.log.Info("ignoring non-paid webhook",
			zap.String("provider", provider),
			zap.String("status", req.Status),
		)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	in := completiondomain.CompleteOrderInput{
		OrderNo:          req.OrderNo,
		Provider:         provider,
		ProviderRef:      req.Reference,
		MemberExternalID: req.MemberID,
		MemberName:       req.MemberName,
		MemberEmail:      req.MemberEmail,
		MemberPhone:      req.MemberPhone,
		ReferralCode:     req.ReferralCode,
		Address:          req.Address.toInput(),
	}
	if req.OrderID != "" {
		id, err := snowflake.ParseString(req.OrderID)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		in.OrderID = id
	}
	if req.PaidAt != "" {
		paidAt, err := time.Parse(time.RFC3339, req.PaidAt)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		in.PaidAt = paidAt
	}

	result, err := s.completionSvc.CompleteOrder(c.Request.Context(), in)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// Duplicate deliveries are acknowledged so the provider stops retrying.
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"order_id":  result.OrderID.String(),
		"duplicate": result.Duplicate,
		"warnings":  result.Warnings,
	})
}
