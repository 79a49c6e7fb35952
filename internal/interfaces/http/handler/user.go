package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/possale/backend/internal/application/identity"
	"github.com/possale/backend/internal/interfaces/http/dto"
)

// UserHandler bootstraps the admin and lets it manage cashier accounts
type UserHandler struct {
	BaseHandler
	users *identity.UserService
}

func NewUserHandler(users *identity.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterAdmin handles POST /users/admin-register. The route is public;
// the service refuses once an admin exists.
func (h *UserHandler) RegisterAdmin(c *gin.Context) {
	req, ok := bindJSON[dto.RegisterAdminRequest](c)
	if !ok {
		return
	}
	user, err := h.users.RegisterAdmin(c.Request.Context(), identity.RegisterAdminInput{
		Username: req.Username,
		Password: req.Password,
	})
	h.reply(c, http.StatusCreated, user, err)
}

// RegisterCashier handles POST /users
func (h *UserHandler) RegisterCashier(c *gin.Context) {
	req, ok := bindJSON[dto.RegisterCashierRequest](c)
	if !ok {
		return
	}
	birthday, err := req.BirthdayTime()
	if err != nil {
		h.ValidationError(c, err)
		return
	}

	user, err := h.users.RegisterCashier(c.Request.Context(), identity.RegisterCashierInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Username:    req.Username,
		Birthday:    birthday,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	h.reply(c, http.StatusCreated, user, err)
}

// ListCashiers handles GET /users
func (h *UserHandler) ListCashiers(c *gin.Context) {
	users, err := h.users.ListCashiers(c.Request.Context())
	if users == nil {
		users = []identity.UserDTO{}
	}
	h.reply(c, http.StatusOK, users, err)
}

// UpdateCashier handles PUT /users/:id. Setting is_active to false also
// revokes every token the cashier holds.
func (h *UserHandler) UpdateCashier(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}
	req, ok := bindJSON[dto.UpdateCashierRequest](c)
	if !ok {
		return
	}

	input := identity.UpdateCashierInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Username:    req.Username,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		IsActive:    req.IsActive,
	}
	if req.Birthday != nil {
		birthday, err := time.Parse(dto.BirthdayLayout, *req.Birthday)
		if err != nil {
			h.ValidationError(c, err)
			return
		}
		input.Birthday = &birthday
	}

	user, err := h.users.UpdateCashier(c.Request.Context(), id, input)
	h.reply(c, http.StatusOK, user, err)
}
