package handler

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"csinventory/internal/models"
	"csinventory/internal/repository"
	"csinventory/internal/service"
)

const switchPrefix = models.SwitchKeyPrefix

type SystemSettingsHandler struct {
	Repo     repository.Repository
	Settings *service.SystemSettingsService
	Logger   *zap.Logger
}

func (h *SystemSettingsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/system-settings")
	g.GET("", h.list)
	g.GET("/switches", h.listSwitches)
	g.GET("/switches/:name", h.getSwitch)
	g.PUT("/switches/:name", h.putSwitch)
	g.GET("/:key", h.get)
	g.PUT("/:key", h.put)
}

// @Summary List settings
// @Tags system-settings
// @Param prefix query string false "key prefix"
// @Success 200 {object} apiResponse
// @Router /api/system-settings [get]
func (h *SystemSettingsHandler) list(c *gin.Context) {
	limit := intQuery(c, "limit", 200)
	offset := intQuery(c, "offset", 0)
	var prefix *string
	if v := strings.TrimSpace(c.Query("prefix")); v != "" {
		prefix = &v
	}
	params := repository.ListSystemSettingsParams{
		Limit:   limit,
		Offset:  offset,
		Prefix:  prefix,
		OrderBy: "key",
		Asc:     boolPtr(true),
	}
	items, err := h.Repo.ListSystemSettings(c.Request.Context(), params)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	total, err := h.Repo.CountSystemSettings(c.Request.Context(), params)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	out := make([]settingDTO, 0, len(items))
	for _, it := range items {
		out = append(out, toSettingDTO(it))
	}
	Ok(c, out, paginationMeta(limit, offset, total))
}

// @Summary Get setting
// @Tags system-settings
// @Param key path string true "setting key"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/system-settings/{key} [get]
func (h *SystemSettingsHandler) get(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		Error(c, http.StatusBadRequest, "invalid key", nil)
		return
	}
	item, err := h.Repo.GetSystemSettingByKey(c.Request.Context(), key)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "setting not found", nil)
		return
	}
	Ok(c, toSettingDTO(*item), nil)
}

type putSystemSettingRequest struct {
	Value       any    `json:"value"`
	Description string `json:"description"`
}

// @Summary Create or replace a setting
// @Description Keys under feature. must hold a boolean.
// @Tags system-settings
// @Accept json
// @Param key path string true "setting key"
// @Param body body putSystemSettingRequest true "value"
// @Success 200 {object} apiResponse
// @Router /api/system-settings/{key} [put]
func (h *SystemSettingsHandler) put(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		Error(c, http.StatusBadRequest, "invalid key", nil)
		return
	}
	var req putSystemSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	raw, err := json.Marshal(req.Value)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid value", nil)
		return
	}
	now := time.Now().UTC()
	item := &models.SystemSetting{
		Key:         key,
		Value:       datatypes.JSON(raw),
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, ok := item.Enabled(); item.IsSwitch() && !ok {
		Error(c, http.StatusBadRequest, "feature switches take a boolean value", nil)
		return
	}
	if err := h.Repo.UpsertSystemSetting(c.Request.Context(), item); err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	next, err := h.Repo.GetSystemSettingByKey(c.Request.Context(), key)
	if err != nil || next == nil {
		Ok(c, toSettingDTO(*item), nil)
		return
	}
	Ok(c, toSettingDTO(*next), nil)
}

// @Summary Feature switches
// @Tags system-settings
// @Success 200 {object} apiResponse
// @Router /api/system-settings/switches [get]
func (h *SystemSettingsHandler) listSwitches(c *gin.Context) {
	ctx := c.Request.Context()
	defaults := service.DefaultFeatureSwitches()
	keys := make([]string, 0, len(defaults))
	for key := range defaults {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]switchDTO, 0, len(keys))
	for _, key := range keys {
		out = append(out, switchDTO{
			Name:    strings.TrimPrefix(key, switchPrefix),
			Key:     key,
			Enabled: h.Settings.IsEnabled(ctx, key, defaults[key]),
		})
	}
	Ok(c, out, nil)
}

// @Summary Get a feature switch
// @Tags system-settings
// @Param name path string true "switch name without the feature. prefix"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/system-settings/switches/{name} [get]
func (h *SystemSettingsHandler) getSwitch(c *gin.Context) {
	key, def, ok := h.switchKey(c)
	if !ok {
		return
	}
	Ok(c, switchDTO{
		Name:    strings.TrimPrefix(key, switchPrefix),
		Key:     key,
		Enabled: h.Settings.IsEnabled(c.Request.Context(), key, def),
	}, nil)
}

type putSwitchRequest struct {
	Enabled *bool `json:"enabled"`
}

// @Summary Turn a feature switch on or off
// @Tags system-settings
// @Accept json
// @Param name path string true "switch name without the feature. prefix"
// @Param body body putSwitchRequest true "state"
// @Success 200 {object} apiResponse
// @Router /api/system-settings/switches/{name} [put]
func (h *SystemSettingsHandler) putSwitch(c *gin.Context) {
	key, _, ok := h.switchKey(c)
	if !ok {
		return
	}
	var req putSwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		Error(c, http.StatusBadRequest, "enabled is required", nil)
		return
	}
	if err := h.Settings.SetEnabled(c.Request.Context(), key, *req.Enabled); err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	if h.Logger != nil {
		h.Logger.Info("feature switch changed", zap.String("key", key), zap.Bool("enabled", *req.Enabled))
	}
	Ok(c, switchDTO{
		Name:    strings.TrimPrefix(key, switchPrefix),
		Key:     key,
		Enabled: *req.Enabled,
	}, nil)
}

func (h *SystemSettingsHandler) switchKey(c *gin.Context) (string, bool, bool) {
	name := strings.TrimSpace(c.Param("name"))
	key := switchPrefix + name
	def, known := service.DefaultFeatureSwitches()[key]
	if name == "" || !known {
		Error(c, http.StatusNotFound, "unknown switch", nil)
		return "", false, false
	}
	return key, def, true
}

type settingDTO struct {
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value" swaggertype:"object"`
	Description string          `json:"description"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toSettingDTO(s models.SystemSetting) settingDTO {
	value := json.RawMessage(s.Value)
	if len(value) == 0 {
		value = json.RawMessage("null")
	}
	return settingDTO{
		Key:         s.Key,
		Value:       value,
		Description: s.Description,
		UpdatedAt:   s.UpdatedAt,
	}
}

type switchDTO struct {
	Name    string `json:"name"`
	Key     string `json:"key"`
	Enabled bool   `json:"enabled"`
}
