package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sumitmalik51/gitsecureops/logger"
	"github.com/sumitmalik51/gitsecureops/services/admin"
	"github.com/sumitmalik51/gitsecureops/validation"
)

func SetupCopilot(router gin.IRouter, logger logger.Logger, service *admin.Service, validator *validation.Validator) {
	router.GET("/orgs/:org/copilot/seats", handleCopilotSeats(service, logger, validator))

}

func handleCopilotSeats(service *admin.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request, ok := bindOrgRequest(c, logger, validator)
		if !ok {
			return
		}

		report, err := service.CopilotReport(c.Request.Context(), c.GetString(ContextKeyToken), request.Org)
		if err != nil {
			logger.Error("could not build copilot report", "org", request.Org, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, statusForError(err), []string{err.Error()})
			return
		}

		writeResponse(c, report, http.StatusOK, nil)
	}
}
