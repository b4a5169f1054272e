package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	catalogdomain "github.com/solventlabs/solvent/internal/catalog/domain"
	completiondomain "github.com/solventlabs/solvent/internal/completion/domain"
	orderdomain "github.com/solventlabs/solvent/internal/order/domain"
)

type checkoutCompleteRequest struct {
	OrderNo      string `json:"order_no" binding:"required"`
	Provider     string `json:"provider"`
	Reference    string `json:"reference"`
	MemberID     string `json:"member_id"`
	MemberName   string `json:"member_name"`
	MemberEmail  string `json:"member_email"`
	MemberPhone  string `json:"member_phone"`
	ReferralCode string `json:"referral_code"`

	Address *addressRequest `json:"address"`
}

// handleCheckoutComplete is the redirect-return path. The payment webhook
// usually lands first; whichever arrives second sees duplicate=true.
func (s *Server) handleCheckoutComplete(c *gin.Context) {
	var req checkoutCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.completionSvc.CompleteOrder(c.Request.Context(), completiondomain.CompleteOrderInput{
		OrderNo:          req.OrderNo,
		Provider:         req.Provider,
		ProviderRef:      req.Reference,
		MemberExternalID: req.MemberID,
		MemberName:       req.MemberName,
		MemberEmail:      req.MemberEmail,
		MemberPhone:      req.MemberPhone,
		ReferralCode:     req.ReferralCode,
		Address:          req.Address.toInput(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type createOrderRequest struct {
	OrderNo  string `json:"order_no" binding:"required"`
	MemberID string `json:"member_id"`
	Lines    []struct {
		ProductID string `json:"product_id" binding:"required"`
		Quantity  int64  `json:"quantity" binding:"required"`
	} `json:"lines" binding:"required"`
}

func (s *Server) handleCreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	in := orderdomain.CreateOrderInput{OrderNo: req.OrderNo}
	if req.MemberID != "" {
		memberID, err := snowflake.ParseString(req.MemberID)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		in.MemberID = memberID
	}
	for _, line := range req.Lines {
		productID, err := snowflake.ParseString(line.ProductID)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		in.Lines = append(in.Lines, orderdomain.LineInput{
			ProductID: productID,
			Quantity:  line.Quantity,
		})
	}

	order, err := s.orderSvc.Create(c.Request.Context(), in)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (s *Server) handleGetOrder(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	order, err := s.orderSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (s *Server) handleListProducts(c *gin.Context) {
	products, err := s.catalogSvc.List(c.Request.Context(), parseLimit(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

type createProductRequest struct {
	SKU    string `json:"sku" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Price  int64  `json:"price"`
	Points int64  `json:"points"`
	Stock  int64  `json:"stock"`
}

func (s *Server) handleCreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	product, err := s.catalogSvc.Create(c.Request.Context(), catalogdomain.CreateProductInput{
		SKU:    req.SKU,
		Name:   req.Name,
		Price:  req.Price,
		Points: req.Points,
		Stock:  req.Stock,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}
