package server

import (
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/solventlabs/solvent/internal/ledger/domain"
	orderdomain "github.com/solventlabs/solvent/internal/order/domain"
)

func parseLimit(c *gin.Context) int {
	raw := c.Query("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return limit
}

func (s *Server) handleListCycles(c *gin.Context) {
	cycles, err := s.poolSvc.List(c.Request.Context(), parseLimit(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cycles": cycles})
}

func (s *Server) handleOpenCycle(c *gin.Context) {
	cycle, err := s.poolSvc.GetOpen(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cycle)
}

func (s *Server) handleGetCycle(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	cycle, err := s.poolSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	payouts, err := s.ledgerSvc.ListEntriesBySource(c.Request.Context(), ledgerdomain.SourceTypeBonusCycle, cycle.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cycle": cycle, "payouts": payouts})
}

func (s *Server) handleGetMember(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	ctx := c.Request.Context()
	member, err := s.memberSvc.Get(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	referrer, err := s.memberSvc.GetReferrer(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := gin.H{"member": member}
	if referrer != nil {
		resp["referrer_id"] = referrer.ReferrerID.String()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleMemberLedger(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	entries, err := s.ledgerSvc.ListEntries(c.Request.Context(), id, parseLimit(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) handleMemberBalances(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	ctx := c.Request.Context()
	points, err := s.ledgerSvc.GetBalance(ctx, id, ledgerdomain.BalancePoints)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	cash, err := s.ledgerSvc.GetBalance(ctx, id, ledgerdomain.BalanceCash)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"member_id": id.String(),
		"points":    points,
		"cash":      cash,
	})
}

func (s *Server) handleListPartners(c *gin.Context) {
	partners, err := s.partnerSvc.List(c.Request.Context(), parseLimit(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"partners": partners})
}

type createPartnerRequest struct {
	MemberID string `json:"member_id" binding:"required"`
	Tier     string `json:"tier" binding:"required"`
}

func (s *Server) handleCreatePartner(c *gin.Context) {
	var req createPartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	memberID, err := snowflake.ParseString(req.MemberID)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	partner, err := s.partnerSvc.CreateFromTier(c.Request.Context(), memberID, req.Tier)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, partner)
}

type adjustTokensRequest struct {
	Delta  int64  `json:"delta" binding:"required"`
	Reason string `json:"reason"`
}

func (s *Server) handleAdjustTokens(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req adjustTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	partner, err := s.partnerSvc.AdjustTokens(c.Request.Context(), id, req.Delta, req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, partner)
}

func (s *Server) handleGetOrderBill(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	bill, err := s.billSvc.GetByOrder(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if bill == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, bill)
}

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) handleUpdateOrderStatus(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.orderSvc.UpdateStatus(c.Request.Context(), id, orderdomain.Status(req.Status)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
