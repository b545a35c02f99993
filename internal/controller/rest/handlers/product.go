package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"BakeryStore/internal/domain/catalog"
)

type ProductHandler struct {
	ledger *catalog.LedgerService
}

func NewProductHandler(ledger *catalog.LedgerService) ProductHandler {
	return ProductHandler{ledger: ledger}
}

type ProductFilterParams struct {
	Category string `form:"category" binding:"omitempty,oneof=bread cake pastry"`
	Vendor   string `form:"vendor"`
	Search   string `form:"q" binding:"omitempty,max=128"`
}

func (h *ProductHandler) List(c *gin.Context) {
	var params ProductFilterParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, err)
		return
	}

	query := catalog.ProductsQuery{Search: params.Search}
	if params.Category != "" {
		query.Categories = []catalog.Category{catalog.Category(params.Category)}
	}
	if params.Vendor != "" {
		query.Vendors = []string{params.Vendor}
	}

	products, err := h.ledger.ListProducts(c.Request.Context(), query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Get(c *gin.Context) {
	p, err := h.ledger.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req catalog.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.ledger.CreateProduct(c.Request.Context(), a, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req catalog.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.ledger.UpdateProduct(c.Request.Context(), a, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Restock(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req catalog.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.ledger.Restock(c.Request.Context(), a, c.Param("id"), *req.Stock)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := h.ledger.DeleteProduct(c.Request.Context(), a, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
