package wallet

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"gighub/internal/auth"
	"gighub/internal/events"
	"gighub/internal/feed"
	"gighub/pkg/models"
)

type Handler struct {
	Repo   *Repo
	Events *events.Repo
	Hub    *feed.Hub
}

func NewHandler(repo *Repo, eventsRepo *events.Repo, hub *feed.Hub) *Handler {
	return &Handler{Repo: repo, Events: eventsRepo, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/wallet", h.list)
	rg.POST("/wallet", h.addOrUpdate)
	rg.PUT("/wallet/:event_id", h.addOrUpdate)
	rg.GET("/wallet/:event_id", h.getOne)
	rg.DELETE("/wallet/:event_id", h.remove)
}

type upsertReq struct {
	EventID string   `json:"event_id"` // required for POST
	Status  string   `json:"status"`
	Price   *float64 `json:"price"`
	Notes   string   `json:"notes"`
}

func (h *Handler) addOrUpdate(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req upsertReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	eventID := strings.TrimSpace(req.EventID)
	if eventID == "" {
		eventID = strings.TrimSpace(c.Param("event_id"))
	}
	if eventID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event_id required"})
		return
	}

	// The ticket must point at a show we actually know about.
	ev, err := h.Events.GetByID(c.Request.Context(), eventID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup event failed"})
		return
	}
	if ev == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}

	status := normalizeStatus(req.Status)
	if status == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "status must be one of: upcoming, used, transferred",
		})
		return
	}

	if req.Price != nil && *req.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be >= 0"})
		return
	}

	t := models.Ticket{
		UserID:  claims.UserID,
		EventID: eventID,
		Status:  status,
		Price:   req.Price,
		Notes:   strings.TrimSpace(req.Notes),
	}
	if err := h.Repo.Upsert(c.Request.Context(), t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	// Return canonical stored row including barcode and timestamps
	saved, err := h.Repo.Get(c.Request.Context(), claims.UserID, eventID)
	if err != nil || saved == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch saved failed"})
		return
	}

	if h.Hub != nil {
		ev := feed.WalletEvent{
			Type:    feed.TypeWalletUpdate,
			UserID:  claims.UserID,
			EventID: eventID,
			Status:  saved.Status,
			At:      time.Now().UTC(),
		}
		go h.Hub.BroadcastJSON(ev)
	}

	c.JSON(http.StatusOK, saved)
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	status := strings.TrimSpace(c.Query("status"))
	if status != "" {
		status = normalizeStatus(status)
		if status == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
			return
		}
	}

	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	items, total, err := h.Repo.List(c.Request.Context(), claims.UserID, status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"items":  items,
	})
}

func (h *Handler) getOne(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	eventID := strings.TrimSpace(c.Param("event_id"))
	t, err := h.Repo.Get(c.Request.Context(), claims.UserID, eventID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if t == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) remove(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	eventID := strings.TrimSpace(c.Param("event_id"))
	ok, err := h.Repo.Delete(c.Request.Context(), claims.UserID, eventID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if h.Hub != nil {
		ev := feed.WalletEvent{
			Type:    "wallet.delete",
			UserID:  claims.UserID,
			EventID: eventID,
			At:      time.Now().UTC(),
		}
		go h.Hub.BroadcastJSON(ev)
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func normalizeStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "upcoming":
		return "upcoming"
	case "used":
		return "used"
	case "transferred":
		return "transferred"
	default:
		return ""
	}
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
