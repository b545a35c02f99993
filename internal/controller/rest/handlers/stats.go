package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"BakeryStore/internal/domain/catalog"
	"BakeryStore/internal/domain/order"
	"BakeryStore/internal/domain/user"
)

type StatsHandler struct {
	orders            *order.OrderService
	ledger            *catalog.LedgerService
	users             *user.UserService
	lowStockThreshold int
}

func NewStatsHandler(orders *order.OrderService, ledger *catalog.LedgerService, users *user.UserService, lowStockThreshold int) StatsHandler {
	return StatsHandler{orders: orders, ledger: ledger, users: users, lowStockThreshold: lowStockThreshold}
}

type StatsResponse struct {
	order.Stats
	LowStock []catalog.Product `json:"low_stock"`
	// admin only
	UsersByRole map[user.Role]int `json:"users_by_role,omitempty"`
}

// Get returns the dashboard headline numbers. Vendors see their own orders and products only.
func (h *StatsHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	stats, err := h.orders.Stats(c.Request.Context(), a)
	if err != nil {
		writeError(c, err)
		return
	}
	low, err := h.ledger.LowStock(c.Request.Context(), h.lowStockThreshold)
	if err != nil {
		writeError(c, err)
		return
	}

	visible := make([]catalog.Product, 0, len(low))
	for _, p := range low {
		if a.Role.IsStaff() && (a.Role != user.RoleVendor || p.Vendor == a.Name) {
			visible = append(visible, p)
		}
	}
	resp := StatsResponse{Stats: stats, LowStock: visible}

	if a.Role == user.RoleAdmin {
		users, err := h.users.GetUsers(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		resp.UsersByRole = make(map[user.Role]int)
		for _, u := range users {
			resp.UsersByRole[u.Role]++
		}
	}
	c.JSON(http.StatusOK, resp)
}
