package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sumitmalik51/gitsecureops/logger"
	"github.com/sumitmalik51/gitsecureops/services/admin"
	"github.com/sumitmalik51/gitsecureops/validation"
)

func SetupSecurity(router gin.IRouter, logger logger.Logger, service *admin.Service, validator *validation.Validator) {
	router.GET("/orgs/:org/two-factor", handleTwoFactorReport(service, logger, validator))
	router.GET("/orgs/:org/review-load", handleReviewLoad(service, logger, validator))

}

func handleTwoFactorReport(service *admin.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request, ok := bindOrgRequest(c, logger, validator)
		if !ok {
			return
		}

		report, err := service.TwoFactorReport(c.Request.Context(), c.GetString(ContextKeyToken), request.Org)
		if err != nil {
			logger.Error("could not build two-factor report", "org", request.Org, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, statusForError(err), []string{err.Error()})
			return
		}

		writeResponse(c, report, http.StatusOK, nil)
	}
}

func handleReviewLoad(service *admin.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request, ok := bindOrgRequest(c, logger, validator)
		if !ok {
			return
		}

		load, err := service.ReviewLoad(c.Request.Context(), c.GetString(ContextKeyToken), request.Org)
		if err != nil {
			logger.Error("could not compute review load", "org", request.Org, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, statusForError(err), []string{err.Error()})
			return
		}

		writeResponse(c, load, http.StatusOK, nil)
	}
}
