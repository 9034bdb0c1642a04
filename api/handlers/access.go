package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sumitmalik51/gitsecureops/logger"
	"github.com/sumitmalik51/gitsecureops/services/admin"
	"github.com/sumitmalik51/gitsecureops/validation"
)

type RemoveCollaboratorRequest struct {
	Org      string `uri:"org" json:"org" validate:"required,valid_org"`
	Repo     string `uri:"repo" json:"repo" validate:"required,max=100"`
	Username string `uri:"username" json:"username" validate:"required,valid_org"`
}

func SetupAccess(router gin.IRouter, logger logger.Logger, service *admin.Service, validator *validation.Validator) {
	router.GET("/orgs/:org/access", handleAccessReport(service, logger, validator))
	router.DELETE("/repos/:org/:repo/collaborators/:username", handleRemoveCollaborator(service, logger, validator))

}

func handleAccessReport(service *admin.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request, ok := bindOrgRequest(c, logger, validator)
		if !ok {
			return
		}

		report, err := service.AccessReport(c.Request.Context(), c.GetString(ContextKeyToken), request.Org)
		if err != nil {
			logger.Error("could not build access report", "org", request.Org, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, statusForError(err), []string{err.Error()})
			return
		}

		writeResponse(c, report, http.StatusOK, nil)
	}
}

func handleRemoveCollaborator(service *admin.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := RemoveCollaboratorRequest{}
		if err := c.ShouldBindUri(&request); err != nil {
			logger.Warn("could not extract collaborator removal params", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate collaborator removal request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		err := service.RemoveCollaborator(c.Request.Context(), c.GetString(ContextKeyToken), request.Org, request.Repo, request.Username)
		if err != nil {
			logger.Error("could not remove collaborator", "org", request.Org, "repo", request.Repo, "username", request.Username, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, statusForError(err), []string{err.Error()})
			return
		}

		writeResponse(c, nil, http.StatusNoContent, nil)
	}
}
