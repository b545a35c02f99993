package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"BakeryStore/internal/domain/user"
)

// UserHandler serves the admin team directory.
type UserHandler struct {
	users *user.UserService
}

func NewUserHandler(users *user.UserService) UserHandler {
	return UserHandler{users: users}
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.GetUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	public := make([]user.User, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}
	c.JSON(http.StatusOK, public)
}

func (h *UserHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req user.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := h.users.CreateUser(c.Request.Context(), a, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u.Public())
}

func (h *UserHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req user.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := h.users.UpdateUser(c.Request.Context(), a, c.Param("username"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u.Public())
}

func (h *UserHandler) Delete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := h.users.DeleteUser(c.Request.Context(), a, c.Param("username")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
