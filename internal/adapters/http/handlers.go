package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mbellot/parley/internal/auth"
	"github.com/mbellot/parley/internal/core"
	"github.com/mbellot/parley/internal/domain"
)

// Handlers is the REST surface over the collaborator stores. Plain CRUD; the
// realtime semantics all live behind the websocket endpoint.
type Handlers struct {
	Users    core.UserStore
	Rooms    core.RoomStore
	Messages core.MessageStore
	Issuer   *auth.TokenIssuer
}

func actor(c *gin.Context) domain.UserID {
	return domain.UserID(c.GetString("user_id"))
}

// writeError maps the failure taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var ce *core.Error
	if errors.As(err, &ce) {
		switch ce.Kind {
		case core.KindAuthorizationDenied:
			c.JSON(http.StatusForbidden, gin.H{"error": ce.Msg})
			return
		case core.KindNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": ce.Msg})
			return
		case core.KindInvalidState:
			c.JSON(http.StatusConflict, gin.H{"error": ce.Msg})
			return
		}
	}
	log.Error().Err(err).Str("module", "adapters.http").Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// POST /api/users
func (h *Handlers) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	user, err := domain.NewUser(req.Username, req.Email, hash)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Users.Create(user); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// POST /api/login
func (h *Handlers) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	user, err := h.Users.GetByUsername(req.Username)
	if err != nil {
		// same response as a wrong password; no user enumeration
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	ok, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	token, err := h.Issuer.Generate(user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// GET /api/users
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.Users.List()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GET /api/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	user, err := h.Users.GetByID(domain.UserID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// POST /api/rooms
func (h *Handlers) CreateRoom(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	room, err := domain.NewRoom(req.Name, actor(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Rooms.Create(room, actor(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

// GET /api/rooms
func (h *Handlers) ListRooms(c *gin.Context) {
	rooms, err := h.Rooms.List()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// GET /api/rooms/:id
func (h *Handlers) GetRoom(c *gin.Context) {
	id := domain.RoomID(c.Param("id"))
	room, err := h.Rooms.GetByID(id)
	if err != nil {
		writeError(c, err)
		return
	}
	participants, err := h.Rooms.Participants(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room, "participants": participants})
}

// POST /api/rooms/:id/participants
func (h *Handlers) AddParticipant(c *gin.Context) {
	var req struct {
		UserID string `json:"userId" binding:"required"`
		Role   string `json:"role"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	role := domain.Role(req.Role)
	if role == "" {
		role = domain.RoleMember
	}
	if _, err := h.Users.GetByID(domain.UserID(req.UserID)); err != nil {
		writeError(c, err)
		return
	}
	if err := h.Rooms.AddParticipant(domain.RoomID(c.Param("id")), domain.UserID(req.UserID), role); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /api/rooms/:id/participants/:userId
func (h *Handlers) RemoveParticipant(c *gin.Context) {
	if err := h.Rooms.RemoveParticipant(domain.RoomID(c.Param("id")), domain.UserID(c.Param("userId"))); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/rooms/:id/messages
func (h *Handlers) ListMessages(c *gin.Context) {
	var cursor *string
	if v := c.Query("cursor"); v != "" {
		cursor = &v
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	id := domain.RoomID(c.Param("id"))
	if _, err := h.Rooms.GetByID(id); err != nil {
		writeError(c, err)
		return
	}
	messages, next, err := h.Messages.ListByRoom(id, cursor, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := gin.H{"messages": messages}
	if next != nil {
		resp["nextCursor"] = *next
	}
	c.JSON(http.StatusOK, resp)
}
