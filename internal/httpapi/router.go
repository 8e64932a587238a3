package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine exposing the account, bot-config,
// and trade-history surfaces described for the control plane.
func NewRouter(s *Server) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", s.Signup)
		authGroup.POST("/signin", s.Signin)
	}

	users := router.Group("/users", s.Auth.RequireAuth())
	{
		users.GET("/me", s.Me)
	}

	bots := router.Group("/bots", s.Auth.RequireAuth())
	{
		bots.GET("", s.ListBots)
		bots.PUT("/trading", s.UpdateTradingParams)
		bots.PUT("/mev", s.UpdateMevConfig)
		bots.GET("/start", s.StartBot)
		bots.GET("/stop", s.StopBot)
	}

	trades := router.Group("/trades", s.Auth.RequireAuth())
	{
		trades.GET("/data", s.TradesData)
		trades.GET("/user/:id", s.TradesForUser)
	}

	return router
}
