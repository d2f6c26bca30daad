package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsimonrichard/sceideal/internal/auth/credentials"
	"github.com/jsimonrichard/sceideal/internal/logger"
	"github.com/jsimonrichard/sceideal/internal/session"
	"github.com/jsimonrichard/sceideal/internal/users"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	userID, err := h.credentials.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if !h.startSession(c, userID) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged_in"})
}

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	FName       string `json:"fname" binding:"required"`
	LName       string `json:"lname" binding:"required"`
	PhoneNumber string `json:"phone_number"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	nu := users.NewUser{
		Email: req.Email,
		FName: req.FName,
		LName: req.LName,
	}
	if req.PhoneNumber != "" {
		phone := req.PhoneNumber
		nu.PhoneNumber = &phone
	}

	userID, err := h.credentials.Register(c.Request.Context(), nu, req.Password)
	if err != nil {
		if errors.Is(err, credentials.ErrAlreadyRegistered) {
			c.JSON(http.StatusConflict, gin.H{"error": "account already exists"})
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	if !h.startSession(c, userID) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "registered"})
}

// startSession creates the session cookie after a successful local
// login. It answers 500 itself when the store fails.
func (h *Handler) startSession(c *gin.Context, userID uuid.UUID) bool {
	_, err := h.sessions.Create(c.Writer, c.Request, session.NewData(userID))
	if err != nil {
		logger.Errorw("session create failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session error"})
		return false
	}
	return true
}
