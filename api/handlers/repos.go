package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sumitmalik51/gitsecureops/logger"
	"github.com/sumitmalik51/gitsecureops/services/admin"
	"github.com/sumitmalik51/gitsecureops/validation"
)

type OrgRequest struct {
	Org string `uri:"org" json:"org" validate:"required,valid_org"`
}

func SetupRepositories(router gin.IRouter, logger logger.Logger, service *admin.Service, validator *validation.Validator) {
	router.GET("/orgs/:org/repos", handleListRepositories(service, logger, validator))

}

func handleListRepositories(service *admin.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request, ok := bindOrgRequest(c, logger, validator)
		if !ok {
			return
		}

		repos, err := service.ListRepositories(c.Request.Context(), c.GetString(ContextKeyToken), request.Org)
		if err != nil {
			logger.Error("could not list repositories", "org", request.Org, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, statusForError(err), []string{err.Error()})
			return
		}

		writeResponse(c, repos, http.StatusOK, nil)
	}
}

func bindOrgRequest(c *gin.Context, logger logger.Logger, validator *validation.Validator) (OrgRequest, bool) {
	request := OrgRequest{}
	if err := c.ShouldBindUri(&request); err != nil {
		logger.Warn("could not extract org from request path", "err", err.Error())
		c.Abort()
		writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request parameters"})
		return request, false
	}

	if err := validator.Validate(request); err != nil {
		logger.Warn("could not validate org request", "err", err.Error())
		c.Abort()
		writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
		return request, false
	}

	return request, true
}
