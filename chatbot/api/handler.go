package api

import (
	"net/http"

	"aurumstore/backend/chatbot/models"
	"aurumstore/backend/chatbot/service"
	"aurumstore/backend/pkg/errors"
	"aurumstore/backend/pkg/jwt"
	"aurumstore/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type ConfigHandler struct {
	service *service.ConfigService
}

func NewConfigHandler(svc *service.ConfigService) *ConfigHandler {
	return &ConfigHandler{service: svc}
}

// GetConfig handles GET /stores/:storeId/chatbot. The storefront reads it
// for the greeting bubble; the config may be null for stores without a bot.
func (h *ConfigHandler) GetConfig(c *gin.Context) {
	cfg, err := h.service.GetByStore(c.Param("storeId"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg})
}

type updateConfigRequest struct {
	GreetingMessage *string              `json:"greeting_message"`
	AutoReplies     *[]models.AutoReply  `json:"auto_replies"`
	WorkingHours    *models.WorkingHours `json:"working_hours"`
	IsActive        *bool                `json:"is_active"`
}

// UpdateConfig handles PUT /stores/:storeId/chatbot (owner only). Partial
// updates merge over the current config, creating it from defaults first
// when the store has none.
func (h *ConfigHandler) UpdateConfig(c *gin.Context) {
	storeID := c.Param("storeId")

	var req updateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("VALIDATION_ERROR", "malformed request body"))
		return
	}

	cfg, err := h.service.GetByStore(storeID)
	if err != nil {
		c.Error(err)
		return
	}
	if cfg == nil {
		cfg = models.NewDefaultConfig(storeID)
	}

	if req.GreetingMessage != nil {
		cfg.GreetingMessage = *req.GreetingMessage
	}
	if req.AutoReplies != nil {
		cfg.AutoReplies = *req.AutoReplies
	}
	if req.WorkingHours != nil {
		cfg.SetWorkingHours(*req.WorkingHours)
	}
	if req.IsActive != nil {
		cfg.IsActive = *req.IsActive
	}

	if err := h.service.Update(cfg); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg})
}

// RegisterConfigRoutes mounts the chatbot settings surface.
func RegisterConfigRoutes(rg *gin.RouterGroup, handler *ConfigHandler, jwtService *jwt.Service) {
	group := rg.Group("/stores/:storeId/chatbot")
	{
		group.GET("", handler.GetConfig)
		group.PUT("", middleware.RequireStoreOwner(jwtService), handler.UpdateConfig)
	}
}
