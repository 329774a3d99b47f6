package handlers

import (
	"net/http"

	"restaurant-pos/internal/auth"
	"restaurant-pos/internal/middleware"
	"restaurant-pos/internal/models"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Name string `json:"name" binding:"required"`
	PIN  string `json:"pin" binding:"required,min=4,max=12"`
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginRequest
	// 1. Validate Input JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	// 2. Find User in DB
	user, err := h.Store.FindUserByName(c.Request.Context(), input.Name)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials", "code": "unauthenticated"})
		return
	}

	// 3. Verify PIN (Bcrypt)
	if !auth.CheckPIN(user.PINHash, input.PIN) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials", "code": "unauthenticated"})
		return
	}

	// 4. Generate JWT Token
	token, err := h.Tokens.GenerateToken(user.ID, user.Name, user.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"role":  user.Role,
		"name":  user.Name,
	})
}

// Register creates the first owner account. It is open while no user exists
// or when ALLOW_REGISTRATION is set.
func (h *Handler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	if !h.AllowRegistration {
		users, err := h.Store.ListUsers(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		if len(users) > 0 {
			c.JSON(http.StatusForbidden, gin.H{"error": "Registration is closed", "code": "registration_closed"})
			return
		}
	}

	var input LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	h.createUser(c, input, models.RoleOwner)
}

type StaffRequest struct {
	LoginRequest
	Role string `json:"role"`
}

func (h *Handler) CreateStaff(c *gin.Context) {
	var input StaffRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	role := input.Role
	if role == "" {
		role = models.RoleStaff
	}
	if role != models.RoleStaff && role != models.RoleOwner {
		badRequest(c, "role must be staff or owner")
		return
	}
	h.createUser(c, input.LoginRequest, role)
}

func (h *Handler) createUser(c *gin.Context, input LoginRequest, role string) {
	hash, err := auth.HashPIN(input.PIN)
	if err != nil {
		respondError(c, err)
		return
	}
	user := models.User{Name: input.Name, PINHash: hash, Role: role}
	if err := h.Store.CreateUser(c.Request.Context(), &user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) ListStaff(c *gin.Context) {
	users, err := h.Store.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) DeleteStaff(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if id == c.GetUint(middleware.KeyUserID) {
		badRequest(c, "You cannot delete your own account")
		return
	}
	if err := h.Store.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
