package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marove/grabbit/app/database"
	"github.com/marove/grabbit/app/entity"
	"github.com/marove/grabbit/app/status"
)

func NewHandler(configCache *entity.ConfigCache, registry *entity.Registry,
	entityRepo database.EntityRepository, contentRepo database.ContentRepository,
	queue *status.Queue, scheduler SchedulerInterface) *Handler {
	return &Handler{
		configCache: configCache,
		registry:    registry,
		entityRepo:  entityRepo,
		contentRepo: contentRepo,
		queue:       queue,
		scheduler:   scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if entityCount, err := h.entityRepo.GetEntityCount(); err == nil {
		health["entities"] = entityCount
	}

	health["loaded_configurations"] = len(h.configCache.GetConfigs())

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"loaded_configurations": len(h.configCache.GetConfigs()),
		"registered_entities":   len(h.registry.All()),
		"pending_messages":      h.queue.Len(),
	}

	if entityCount, err := h.entityRepo.GetEntityCount(); err == nil {
		stats["entities"] = entityCount
	}
	if downloadedCount, err := h.contentRepo.GetDownloadedCount(); err == nil {
		stats["downloaded"] = downloadedCount
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListEntities(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	entities := make([]map[string]interface{}, 0, len(configs))

	for _, cfg := range configs {
		info := map[string]interface{}{
			"name":             cfg.Name,
			"kind":             string(cfg.Kind),
			"enabled":          cfg.Settings.Enabled,
			"post_limit":       cfg.Settings.PostLimit,
			"avoid_duplicates": cfg.Settings.AvoidDuplicates,
			"download_images":  cfg.Settings.DownloadImages,
			"download_videos":  cfg.Settings.DownloadVideos,
			"grouping":         cfg.Settings.Grouping,
		}

		if e, ok := h.registry.Get(cfg.Name); ok {
			info["watermark"] = e.Watermark()
			if custom := e.CustomDateLimit(); custom != nil {
				info["custom_date_limit"] = *custom
			}
		}

		if urls, err := h.contentRepo.GetDownloadedURLs(cfg.Name); err == nil {
			info["downloaded"] = len(urls)
		}

		entities = append(entities, info)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"entities": entities,
		"total":    len(entities),
	})
}

func (h *Handler) APIGetEntityDetails(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing entity name parameter"})
		return
	}

	cfg, ok := h.configCache.Get(name)
	if !ok {
		slog.Error("Entity configuration not found", "entity", name)
		c.JSON(http.StatusNotFound, gin.H{"error": "Entity configuration not found"})
		return
	}

	stored, err := h.entityRepo.GetEntity(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_entity", "entity", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if stored == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entity not found in database"})
		return
	}

	details := map[string]interface{}{
		"name":             name,
		"kind":             string(cfg.Kind),
		"enabled":          cfg.Settings.Enabled,
		"post_limit":       cfg.Settings.PostLimit,
		"avoid_duplicates": cfg.Settings.AvoidDuplicates,
		"download_images":  cfg.Settings.DownloadImages,
		"download_videos":  cfg.Settings.DownloadVideos,
		"grouping":         cfg.Settings.Grouping,
	}

	details["database"] = map[string]interface{}{
		"save_root":         stored.SaveRoot,
		"date_limit":        stored.DateLimit,
		"custom_date_limit": stored.CustomDateLimit,
		"created_at":        stored.CreatedAt,
		"updated_at":        stored.UpdatedAt,
	}

	if urls, err := h.contentRepo.GetDownloadedURLs(name); err == nil {
		details["downloaded"] = len(urls)
	}
	if unfinished, err := h.contentRepo.LoadUnfinished(name); err == nil {
		details["resumable"] = len(unfinished)
	}

	c.JSON(http.StatusOK, details)
}

// APIGetMessages drains the pending user-facing status messages. Draining is
// destructive: each message is delivered exactly once.
func (h *Handler) APIGetMessages(c *gin.Context) {
	messages := h.queue.Drain()
	if messages == nil {
		messages = []string{}
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
		"total":    len(messages),
	})
}

func (h *Handler) APIRunEntity(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing entity name parameter"})
		return
	}

	if _, ok := h.configCache.Get(name); !ok {
		slog.Error("Entity configuration not found", "entity", name)
		c.JSON(http.StatusNotFound, gin.H{"error": "Entity configuration not found"})
		return
	}

	if err := h.scheduler.EnqueuePass(name); err != nil {
		slog.Error("Error enqueueing download pass", "entity", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue download pass",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Download pass enqueued successfully",
		"entity":  name,
	})
}
