package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"github.com/justsurfingit/hiring-pipeline/internal/auth"
	"github.com/justsurfingit/hiring-pipeline/internal/dtos"
	"github.com/justsurfingit/hiring-pipeline/internal/session"
)

// SessionHandler installs and removes the credential used for backend calls.
type SessionHandler struct {
	Guard *session.Guard
	Store *auth.FileStore
}

func NewSessionHandler(g *session.Guard, s *auth.FileStore) *SessionHandler {
	return &SessionHandler{Guard: g, Store: s}
}

// Login is POST /session.
func (h *SessionHandler) Login(c *gin.Context) {
	var req dtos.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	cred := &auth.Credential{
		Token:    &oauth2.Token{AccessToken: req.AccessToken, TokenType: "Bearer"},
		Identity: auth.Identity{UserID: req.UserID, Role: req.Role},
	}
	if err := h.Guard.Establish(cred); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.Store != nil {
		if err := h.Store.Save(cred); err != nil {
			log.Printf("⚠️  Could not persist credential: %v", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "state": h.Guard.State()})
}

// Logout is DELETE /session.
func (h *SessionHandler) Logout(c *gin.Context) {
	h.Guard.Logout()
	c.JSON(http.StatusOK, gin.H{"success": true, "state": h.Guard.State()})
}

// Status is GET /session.
func (h *SessionHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.Guard.State()})
}
