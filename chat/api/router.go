package api

import (
	"aurumstore/backend/pkg/jwt"
	"aurumstore/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterChatRoutes mounts the chat surface under the given group.
// Writes and polling reads are anonymous (customers carry no account);
// the owner-only list view authorizes inside the handler.
func RegisterChatRoutes(rg *gin.RouterGroup, handler *ChatHandler, jwtService *jwt.Service) {
	chats := rg.Group("/stores/:storeId/chat")
	chats.Use(middleware.OptionalAuth(jwtService))
	{
		chats.POST("", handler.SendMessage)
		chats.GET("", handler.GetChats)
	}
}
