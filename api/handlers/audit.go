package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sumitmalik51/gitsecureops/logger"
	"github.com/sumitmalik51/gitsecureops/services/admin"
	"github.com/sumitmalik51/gitsecureops/validation"
)

const defaultAuditLimit = 50

type AuditRequest struct {
	Limit int `form:"limit" validate:"min=0,max=500"`
}

func SetupAudit(router gin.IRouter, logger logger.Logger, service *admin.Service, validator *validation.Validator) {
	router.GET("/audit", handleAuditLog(service, logger, validator))

}

func handleAuditLog(service *admin.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := AuditRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract audit params", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate audit request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		if request.Limit == 0 {
			request.Limit = defaultAuditLimit
		}

		entries, err := service.RecentAuditEntries(request.Limit)
		if err != nil {
			logger.Error("could not read audit entries", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		writeResponse(c, entries, http.StatusOK, nil)
	}
}
