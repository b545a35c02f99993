package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"BakeryStore/internal/domain/order"
)

type OrderHandler struct {
	service *order.OrderService
}

func NewOrderHandler(s *order.OrderService) OrderHandler {
	return OrderHandler{service: s}
}

type FilterParams struct {
	View           string `form:"view" binding:"omitempty,oneof=tasks mine"`
	Statuses       string `form:"status"`
	DeliveryMethod string `form:"delivery_method" binding:"omitempty,oneof=Delivery Pickup"`
	PageSize       int    `form:"limit" binding:"omitempty,min=1,max=500"`
	PageNumber     int    `form:"page" binding:"omitempty,min=1"`
	SortBy         string `form:"sort_by" binding:"omitempty,oneof=created_at updated_at"`
	SortOrder      string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

func (h *OrderHandler) Filter(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var params FilterParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, err)
		return
	}
	view, err := order.NewView(params.View)
	if err != nil {
		badRequest(c, err)
		return
	}
	query, err := h.createFilter(params)
	if err != nil {
		badRequest(c, err)
		return
	}

	orders, err := h.service.ListOrdersFor(c.Request.Context(), a, view, query)
	if err != nil {
		writeError(c, err)
		return
	}
	for i := range orders {
		orders[i] = orders[i].VisibleTo(a)
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) createFilter(params FilterParams) (*order.OrdersQuery, error) {
	b := order.NewOrdersQueryBuilder()

	if params.Statuses != "" {
		raw := strings.Split(params.Statuses, ",")
		statuses := make([]order.Status, 0, len(raw))
		for _, v := range raw {
			s, err := order.NewStatus(strings.TrimSpace(v))
			if err != nil {
				return nil, err
			}
			statuses = append(statuses, s)
		}
		b = b.WithStatuses(statuses...)
	}
	if params.DeliveryMethod != "" {
		b = b.WithDeliveryMethods(order.DeliveryMethod(params.DeliveryMethod))
	}

	if params.SortBy == "" {
		params.SortBy = "created_at"
	}
	if params.SortOrder == "" {
		params.SortOrder = "desc"
	}
	b = b.WithSort(params.SortBy, params.SortOrder)

	if params.PageSize > 0 {
		if params.PageNumber == 0 {
			params.PageNumber = 1
		}
		b = b.WithPagination(order.Pagination{PageSize: params.PageSize, PageNumber: params.PageNumber})
	}

	query, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("invalid filter params: %w", err)
	}
	return query, nil
}

func (h *OrderHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	o, err := h.service.GetOrderFor(c.Request.Context(), a, c.Param("order_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o.VisibleTo(a))
}

// Update applies handler assignment, status change and code submission as one all-or-nothing update.
// Every response carries the outcome so clients can tell a rejected code from a forbidden move.
func (h *OrderHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req order.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	update, err := req.ToUpdate()
	if err == nil {
		var res order.UpdateResult
		res, err = h.service.UpdateOrder(c.Request.Context(), a, c.Param("order_id"), update)
		if err == nil {
			res.Order = res.Order.VisibleTo(a)
			c.JSON(http.StatusOK, res)
			return
		}
	}

	body := errorBody(err)
	body["outcome"] = order.OutcomeOf(err)
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, body)
}

func (h *OrderHandler) GetEvents(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var query order.OrderEventQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	page, err := h.service.GetEvents(c.Request.Context(), a, c.Param("order_id"), query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
