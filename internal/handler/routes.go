package handler

import (
	"github.com/dafibh/ledger/ledger-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all API routes. Every group authenticates first so the rate limiter
// sees the resolved owner.
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, authHandler *AuthHandler, categoryHandler *CategoryHandler, transactionHandler *TransactionHandler) {
	// API version 1
	api := e.Group("/api/v1")
	protected := []echo.MiddlewareFunc{authMiddleware.Authenticate(), middleware.RateLimitMiddleware(rateLimiter)}

	// Auth routes (protected)
	auth := api.Group("/auth", protected...)
	auth.GET("/me", authHandler.Me)

	// Category routes (protected)
	categories := api.Group("/categories", protected...)
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)
	categories.GET("/:id/can-delete", categoryHandler.CanDeleteCategory)

	// Transaction routes (protected). Static paths are registered before /:id.
	transactions := api.Group("/transactions", protected...)
	transactions.GET("/summary", transactionHandler.GetSummary)
	transactions.POST("/export", transactionHandler.ExportTransactions)
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)
}
