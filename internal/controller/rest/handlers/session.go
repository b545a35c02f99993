package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"BakeryStore/internal/auth"
	"BakeryStore/internal/domain/cart"
	"BakeryStore/internal/domain/user"
)

type SessionHandler struct {
	users  *user.UserService
	carts  *cart.CartService
	tokens *auth.TokenIssuer
}

func NewSessionHandler(users *user.UserService, carts *cart.CartService, tokens *auth.TokenIssuer) SessionHandler {
	return SessionHandler{users: users, carts: carts, tokens: tokens}
}

func (h *SessionHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := h.users.Authenticate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, u)
}

// Logout empties the caller's cart. Tokens are stateless and simply expire.
func (h *SessionHandler) Logout(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := h.carts.Clear(c.Request.Context(), a.UserID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, u)
}

func (h *SessionHandler) respondWithToken(c *gin.Context, status int, u user.User) {
	token, err := h.tokens.Issue(u)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, token)
}
