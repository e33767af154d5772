package events

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"gighub/internal/feed"
	"gighub/internal/ingest"
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
	rg.GET("", h.list)        // GET /events
	rg.GET("/:id", h.getByID) // GET /events/:id
}

// RegisterSyncRoutes exposes the ingestion pipeline to the app.
func (h *Handler) RegisterSyncRoutes(rg *gin.RouterGroup) {
	rg.POST("/sync", h.syncBatch)      // POST /sync
	rg.POST("/sync/artist", h.syncOne) // POST /sync/artist
}

func (h *Handler) list(c *gin.Context) {
	q := ListQuery{
		ArtistID: c.Query("artist_id"),
		City:     c.Query("city"),
		Country:  c.Query("country"),
		Limit:    parseInt(c.Query("limit"), 20),
		Offset:   parseInt(c.Query("offset"), 0),
	}

	if s := c.Query("from"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.From = &t
		}
	} else if c.Query("upcoming") != "false" {
		// discovery defaults to upcoming shows
		now := time.Now().UTC()
		q.From = &now
	}
	if s := c.Query("to"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.To = &t
		}
	}

	total, err := h.Repo.Count(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}

	items, err := h.Repo.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  q.Limit,
		"offset": q.Offset,
		"items":  items,
	})
}

func (h *Handler) getByID(c *gin.Context) {
	e, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if e == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, e)
}

type syncBatchReq struct {
	Names          []string `json:"names"`
	MaxArtists     int      `json:"max_artists"`
	LimitPerArtist int      `json:"limit_per_artist"`
}

// syncBatch runs the batch pipeline. Callers should treat this as a
// best-effort refresh and re-query their own read path afterwards.
func (h *Handler) syncBatch(c *gin.Context) {
	var req syncBatchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(req.Names) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "names required"})
		return
	}

	events, err := h.Syncer.SyncArtists(c.Request.Context(), req.Names, ingest.Options{
		MaxArtists:     req.MaxArtists,
		LimitPerArtist: req.LimitPerArtist,
	})
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

type syncOneReq struct {
	Name           string `json:"name"`
	LimitPerArtist int    `json:"limit_per_artist"`
}

func (h *Handler) syncOne(c *gin.Context) {
	var req syncOneReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}

	events, err := h.Syncer.SyncArtist(c.Request.Context(), req.Name, req.LimitPerArtist)
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

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
