package handlers

import (
	"net/http"
	"strconv"
	"time"

	"lightwatch/services"
	"lightwatch/utils"

	"github.com/labstack/echo/v4"
)

// APIHandler handles the operator-facing management and query API.
type APIHandler struct {
	channels   *services.ChannelService
	liveness   *services.LivenessService
	statistics *services.StatisticsService
}

// NewAPIHandler creates a new instance of APIHandler.
func NewAPIHandler(channels *services.ChannelService, liveness *services.LivenessService, statistics *services.StatisticsService) *APIHandler {
	return &APIHandler{
		channels:   channels,
		liveness:   liveness,
		statistics: statistics,
	}
}

// RegisterRoutes attaches all API routes under /api/v1.
func RegisterRoutes(e *echo.Echo, h *APIHandler) {
	api := e.Group("/api/v1")

	api.GET("/health", h.HealthCheck)

	api.POST("/channels", h.CreateChannel)
	api.GET("/channels", h.ListChannels)
	api.GET("/channels/:channelId", h.GetChannelStatus)
	api.DELETE("/channels/:channelId", h.RemoveChannel)

	api.PUT("/channels/:channelId/timezone", h.SetTimezone)
	api.PUT("/channels/:channelId/name", h.SetName)
	api.PUT("/channels/:channelId/owner", h.TransferOwnership)
	api.POST("/channels/:channelId/key", h.RegenerateKey)
	api.PUT("/channels/:channelId/key", h.ReplaceKey)
	api.POST("/channels/:channelId/pause", h.PauseChannel)
	api.POST("/channels/:channelId/resume", h.ResumeChannel)

	api.GET("/channels/:channelId/history", h.GetHistory)
	api.GET("/channels/:channelId/stats/daily", h.GetDailyStats)
}

// historyRange parses the since/until query pair. A missing since means the
// beginning of the history; a missing until means now.
func historyRange(sinceRaw, untilRaw string, now time.Time) (time.Time, time.Time, error) {
	var since time.Time
	until := now
	if sinceRaw != "" {
		parsed, err := time.Parse(time.RFC3339, sinceRaw)
		if err != nil {
			return time.Time{}, time.Time{}, utils.NewBadRequestError("Invalid since timestamp", err)
		}
		since = parsed
	}
	if untilRaw != "" {
		parsed, err := time.Parse(time.RFC3339, untilRaw)
		if err != nil {
			return time.Time{}, time.Time{}, utils.NewBadRequestError("Invalid until timestamp", err)
		}
		until = parsed
	}
	return since, until, nil
}

func channelIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("channelId"), 10, 64)
	if err != nil {
		return 0, utils.NewBadRequestError("Invalid channel id", err)
	}
	return id, nil
}

// HealthCheck provides a simple health status of the service.
func (h *APIHandler) HealthCheck(c echo.Context) error {
	data := map[string]interface{}{
		"service":   "lightwatch",
		"timestamp": time.Now().Unix(),
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Service is healthy", data))
}

// CreateChannel registers a new channel. When the request carries an apiKey
// the channel is imported with that key, otherwise a key is generated. The
// key is only ever returned by this response and the key endpoints.
func (h *APIHandler) CreateChannel(c echo.Context) error {
	var req struct {
		ChannelID int64  `json:"channelId"`
		OwnerID   int64  `json:"ownerId"`
		APIKey    string `json:"apiKey"`
		Name      string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return utils.NewBadRequestError("Invalid request body", err)
	}
	if req.ChannelID == 0 {
		return utils.NewBadRequestError("channelId is required")
	}

	if req.APIKey != "" {
		created, err := h.channels.ImportChannel(req.ChannelID, req.OwnerID, req.APIKey, req.Name)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, utils.SuccessResponse("Channel imported successfully", map[string]interface{}{
			"channelId": created.ChannelID,
			"apiKey":    created.APIKey,
		}))
	}

	created, err := h.channels.CreateChannel(req.ChannelID, req.OwnerID, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, utils.SuccessResponse("Channel created successfully", map[string]interface{}{
		"channelId": created.ChannelID,
		"apiKey":    created.APIKey,
	}))
}

// ListChannels returns status views for all channels, optionally filtered by
// owner.
func (h *APIHandler) ListChannels(c echo.Context) error {
	var ownerID int64
	if raw := c.QueryParam("ownerId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return utils.NewBadRequestError("Invalid ownerId", err)
		}
		ownerID = parsed
	}

	statuses, err := h.channels.StatusAll(ownerID, time.Now())
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"channels": statuses,
		"count":    len(statuses),
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Channels retrieved successfully", data))
}

// GetChannelStatus returns the current derived state of one channel.
func (h *APIHandler) GetChannelStatus(c echo.Context) error {
	channelID, err := channelIDParam(c)
	if err != nil {
		return err
	}
	status, err := h.channels.Status(channelID, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Channel status retrieved successfully", status))
}

// RemoveChannel deletes a channel and its history.
func (h *APIHandler) RemoveChannel(c echo.Context) error {
	channelID, err := channelIDParam(c)
	if err != nil {
		return err
	}
	if err := h.channels.RemoveChannel(channelID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Channel removed successfully", nil))
}

// SetTimezone updates the channel's IANA timezone.
func (h *APIHandler) SetTimezone(c echo.Context) error {
	channelID, err := channelIDParam(c)
	if err != nil {
		return err
	}
	var req struct {
		Timezone string `json:"timezone"`
	}
	if err := c.Bind(&req); err != nil {
		return utils.NewBadRequestError("Invalid request body", err)
	}
	if err := h.channels.SetTimezone(channelID, req.Timezone); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Timezone updated successfully", map[string]string{"timezone": req.Timezone}))
}

// SetName updates the channel's display label.
func (h *APIHandler) SetName(c echo.Context) error {
	channelID, err := channelIDParam(c)
	if err != nil {
		return err
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return utils.NewBadRequestError("Invalid request body", err)
	}
	if err := h.channels.SetName(channelID, req.Name); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Name updated successfully", nil))
}

// TransferOwnership hands the channel to another account.
func (h *APIHandler) TransferOwnership(c echo.Context) error {
	channelID, err := channelIDParam(c)
	if err != nil {
		return err
	}
	var req struct {
		OwnerID int64 `json:"ownerId"`
	}
	if err := c.Bind(&req); err != nil {
		return utils.NewBadRequestError("Invalid request body", err)
	}
	if err := h.channels.TransferOwnership(channelID, req.OwnerID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Ownership transferred successfully", nil))
}

// RegenerateKey replaces the channel's api key with a fresh random one.
func (h *APIHandler) RegenerateKey(c echo.Context) error {
	channelID, err := channelIDParam(c)
	if err != nil {
		return err
	}
	apiKey, err := h.channels.RegenerateKey(channelID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Key regenerated successfully", map[string]string{"apiKey": apiKey}))
}

// ReplaceKey sets a caller-chosen api key.
func (h *APIHandler) ReplaceKey(c echo.Context) error {
	channelID, err := channelIDParam(c)
	if err != nil {
		return err
	}
	var req struct {
		APIKey string `json:"apiKey"`
	}
	if err := c.Bind(&req); err != nil {
		return utils.NewBadRequestError("Invalid request body", err)
	}
	if err := h.channels.ReplaceKey(channelID, req.APIKey); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Key replaced successfully", nil))
}

// PauseChannel suppresses OFF detection for the channel.
func (h *APIHandler) PauseChannel(c echo.Context) error {
	channelID, err := channelIDParam(c)
	if err != nil {
		return err
	}
	if err := h.liveness.Pause(channelID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Channel paused successfully", nil))
}

// ResumeChannel re-enables OFF detection for the channel.
func (h *APIHandler) ResumeChannel(c echo.Context) error {
	channelID, err := channelIDParam(c)
	if err != nil {
		return err
	}
	if err := h.liveness.Resume(channelID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Channel resumed successfully", nil))
}

// GetHistory returns status events. With since/until (RFC 3339) it returns
// the ascending range; either bound may be omitted, defaulting to the start
// of the history and now. Without a range it returns the most recent events,
// newest first.
func (h *APIHandler) GetHistory(c echo.Context) error {
	channelID, err := channelIDParam(c)
	if err != nil {
		return err
	}

	sinceRaw, untilRaw := c.QueryParam("since"), c.QueryParam("until")
	if sinceRaw != "" || untilRaw != "" {
		since, until, err := historyRange(sinceRaw, untilRaw, time.Now())
		if err != nil {
			return err
		}
		events, err := h.channels.QueryHistory(channelID, since, until)
		if err != nil {
			return err
		}
		data := map[string]interface{}{
			"events": events,
			"count":  len(events),
		}
		return c.JSON(http.StatusOK, utils.SuccessResponse("History retrieved successfully", data))
	}

	limit := 10
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return utils.NewBadRequestError("Invalid limit")
		}
		limit = parsed
	}
	events, err := h.channels.RecentHistory(channelID, limit)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"events": events,
		"count":  len(events),
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("History retrieved successfully", data))
}

// GetDailyStats returns uptime/downtime totals for one local calendar day
// (date=YYYY-MM-DD) in the channel's timezone.
func (h *APIHandler) GetDailyStats(c echo.Context) error {
	channelID, err := channelIDParam(c)
	if err != nil {
		return err
	}
	day := c.QueryParam("date")
	if day == "" {
		return utils.NewBadRequestError("date parameter is required (YYYY-MM-DD)")
	}
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return utils.NewBadRequestError("Invalid date, expected YYYY-MM-DD", err)
	}

	stats, err := h.statistics.ComputeDailyStats(channelID, day, time.Now())
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"channelId":       stats.ChannelID,
		"day":             stats.Day,
		"timezone":        stats.Timezone,
		"uptimeSeconds":   int64(stats.Uptime.Seconds()),
		"downtimeSeconds": int64(stats.Downtime.Seconds()),
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Daily stats computed successfully", data))
}
