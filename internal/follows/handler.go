package follows

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"gighub/internal/auth"
	"gighub/internal/feed"
	"gighub/internal/ingest"
	"gighub/pkg/models"
)

type Handler struct {
	Repo   *Repo
	Syncer *ingest.Syncer
	Hub    *feed.Hub
}

func NewHandler(repo *Repo, syncer *ingest.Syncer, hub *feed.Hub) *Handler {
	return &Handler{Repo: repo, Syncer: syncer, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/follows", h.list)
	rg.POST("/follows", h.upsert)
	rg.DELETE("/follows/:artist_name", h.remove)
	rg.POST("/follows/sync", h.syncFollowed)
}

type upsertReq struct {
	ArtistName string `json:"artist_name"`
	Status     string `json:"status"`
}

func (h *Handler) upsert(c *gin.Context) {
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

	name := strings.TrimSpace(req.ArtistName)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "artist_name required"})
		return
	}

	status := normalizeStatus(req.Status)
	if status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of: following, muted"})
		return
	}

	f := models.Follow{UserID: claims.UserID, ArtistName: name, Status: status}
	if err := h.Repo.Upsert(c.Request.Context(), f); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	saved, err := h.Repo.Get(c.Request.Context(), claims.UserID, name)
	if err != nil || saved == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch saved failed"})
		return
	}

	if h.Hub != nil {
		go h.Hub.BroadcastJSON(feed.FollowEvent{
			Type:       feed.TypeFollowUpdate,
			UserID:     claims.UserID,
			ArtistName: name,
			Status:     saved.Status,
			At:         time.Now().UTC(),
		})
	}

	c.JSON(http.StatusOK, saved)
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	items, total, err := h.Repo.ListByUser(c.Request.Context(), claims.UserID, 100, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "items": items})
}

func (h *Handler) remove(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	name := strings.TrimSpace(c.Param("artist_name"))
	removed, err := h.Repo.Delete(c.Request.Context(), claims.UserID, name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// syncFollowed refreshes listings for everything the user follows. The
// caller should re-query its read path afterwards; the pipeline is best
// effort and the returned list is globally deduplicated.
func (h *Handler) syncFollowed(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	names, err := h.Repo.ArtistNamesForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list follows failed"})
		return
	}
	if len(names) == 0 {
		c.JSON(http.StatusOK, gin.H{"count": 0, "events": []any{}})
		return
	}

	events, err := h.Syncer.SyncArtists(c.Request.Context(), names, ingest.Options{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed"})
		return
	}

	if h.Hub != nil && len(events) > 0 {
		go h.Hub.BroadcastJSON(feed.SyncEvent{
			Type:   feed.TypeEventsSynced,
			Count:  len(events),
			Events: events,
			At:     time.Now().UTC(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"count": len(events), "events": events})
}

func normalizeStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "following":
		return "following"
	case "muted":
		return "muted"
	}
	return ""
}
