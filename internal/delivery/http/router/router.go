// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"github.com/ahmedhassan-hash/go-starter-template/internal/delivery/http/middleware"
	"github.com/ahmedhassan-hash/go-starter-template/internal/delivery/http/router/handler"
	"github.com/ahmedhassan-hash/go-starter-template/internal/delivery/realtime"
	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler     *handler.AuthHandler
	FileHandler     *handler.FileHandler
	PaymentHandler  *handler.PaymentHandler
	RealtimeHandler *realtime.Handler
	AuthMiddleware  *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler     *handler.AuthHandler
	fileHandler     *handler.FileHandler
	paymentHandler  *handler.PaymentHandler
	realtimeHandler *realtime.Handler
	authMiddleware  *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:     params.AuthHandler,
		fileHandler:     params.FileHandler,
		paymentHandler:  params.PaymentHandler,
		realtimeHandler: params.RealtimeHandler,
		authMiddleware:  params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Auth routes. Refresh and logout authenticate by refresh token, not by
	// access token, so they stay outside the guarded group.
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/register", r.authHandler.Register)
		authGroup.POST("/login", r.authHandler.Login)
		authGroup.POST("/refresh", r.authHandler.Refresh)
		authGroup.POST("/logout", r.authHandler.Logout)
	}

	authedAuthGroup := e.Group("/auth")
	authedAuthGroup.Use(r.authMiddleware.Authenticate)
	{
		authedAuthGroup.POST("/logout-all", r.authHandler.LogoutAll)
		authedAuthGroup.GET("/me", r.authHandler.Me)
	}

	// Admin routes for account administration.
	adminGroup := e.Group("/admin")
	adminGroup.Use(r.authMiddleware.Authenticate)
	adminGroup.Use(r.authMiddleware.RequireRole(entity.RoleAdmin))
	{
		adminGroup.PUT("/users/:id/role", r.authHandler.UpdateUserRole)
		adminGroup.POST("/payments/:id/refund", r.paymentHandler.Refund)
	}

	// Per-user file storage.
	fileGroup := e.Group("/files")
	fileGroup.Use(r.authMiddleware.Authenticate)
	{
		fileGroup.POST("", r.fileHandler.Upload)
		fileGroup.GET("", r.fileHandler.List)
		fileGroup.GET("/:filename", r.fileHandler.Download)
		fileGroup.GET("/:filename/url", r.fileHandler.SignedURL)
		fileGroup.DELETE("/:filename", r.fileHandler.Delete)
	}

	// Payments. The webhook endpoint authenticates by provider signature,
	// never by user token.
	paymentGroup := e.Group("/payments")
	{
		paymentGroup.POST("/webhook", r.paymentHandler.Webhook)
	}

	authedPaymentGroup := e.Group("/payments")
	authedPaymentGroup.Use(r.authMiddleware.Authenticate)
	{
		authedPaymentGroup.POST("", r.paymentHandler.Create)
	}

	// Realtime gateway. The websocket endpoint does its own token check to
	// support the query-parameter fallback; the push endpoint is called by
	// the pub/sub broker.
	realtimeGroup := e.Group("/realtime")
	{
		realtimeGroup.GET("/ws", r.realtimeHandler.HandleWS)
		realtimeGroup.POST("/push", r.realtimeHandler.HandlePush)
	}
}
