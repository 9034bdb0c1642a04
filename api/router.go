package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sumitmalik51/gitsecureops/api/handlers"
	"github.com/sumitmalik51/gitsecureops/db/searchdb"
	"github.com/sumitmalik51/gitsecureops/logger"
	"github.com/sumitmalik51/gitsecureops/services/admin"
	"github.com/sumitmalik51/gitsecureops/services/aggregate"
	"github.com/sumitmalik51/gitsecureops/validation"
)

func setupRoutes(router *gin.Engine, logger logger.Logger, aggregator *aggregate.Service, adminService *admin.Service, searchDB searchdb.DB, validator *validation.Validator) {
	router.GET("/health", health())

	protected := router.Group("")
	protected.Use(tokenMiddleware())

	handlers.SetupSearch(protected, logger, aggregator, validator)
	handlers.SetupActivity(protected, logger, searchDB, validator)
	handlers.SetupRepositories(protected, logger, adminService, validator)
	handlers.SetupAccess(protected, logger, adminService, validator)
	handlers.SetupCopilot(protected, logger, adminService, validator)
	handlers.SetupSecurity(protected, logger, adminService, validator)
	handlers.SetupAudit(protected, logger, adminService, validator)

}

func health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	}
}

func newRouter() *gin.Engine {
	router := gin.Default()
	router.UseRawPath = true
	router.Use(_CORSMiddleware())
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())

	return router
}
