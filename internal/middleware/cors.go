package middleware

import (
	"net/http"

	"ksocial_backend/internal/config"

	"github.com/gin-gonic/gin"
)

// CORSMiddleware разрешает запросы с фронтенда из конфигурации.
// Пустой frontend.url означает dev-режим: отражаем любой Origin.
func CORSMiddleware() gin.HandlerFunc {
	allowed := config.GetConfig().Frontend.URL

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowed == "" || origin == allowed) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
