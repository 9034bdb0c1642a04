package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sumitmalik51/gitsecureops/logger"
	"github.com/sumitmalik51/gitsecureops/services/aggregate"
	"github.com/sumitmalik51/gitsecureops/validation"
)

const (
	minQueryLength      = 2
	defaultHistoryLimit = 50
)

type SearchRequest struct {
	Query    string `form:"query" json:"query" validate:"valid_query,max=1000"`
	Orgs     string `form:"orgs" json:"orgs" validate:"valid_orgs"`
	Types    string `form:"types" json:"types"`
	Mode     string `form:"mode" json:"mode" validate:"omitempty,oneof=recent search"`
	Language string `form:"language" json:"language" validate:"max=100"`
	State    string `form:"state" json:"state" validate:"omitempty,oneof=open closed"`
	Author   string `form:"author" json:"author" validate:"valid_org"`
	Sort     string `form:"sort" json:"sort" validate:"omitempty,oneof=best-match created updated"`
	Limit    int    `form:"limit" json:"limit" validate:"min=0,max=200"`
	Stream   bool   `form:"stream" json:"stream"`
}

func (r *SearchRequest) toQuery() aggregate.Query {
	query := aggregate.Query{
		Mode:     aggregate.Mode(r.Mode),
		Text:     strings.TrimSpace(r.Query),
		Language: r.Language,
		State:    r.State,
		Author:   r.Author,
		Sort:     aggregate.Sort(r.Sort),
		Limit:    r.Limit,
	}

	for _, org := range strings.Split(r.Orgs, ",") {
		if org = strings.TrimSpace(org); org != "" {
			query.Organizations = append(query.Organizations, org)
		}
	}

	for _, kind := range strings.Split(r.Types, ",") {
		if kind = strings.TrimSpace(kind); kind != "" {
			query.Types = append(query.Types, aggregate.Kind(kind))
		}
	}

	return query
}

type HistoryRequest struct {
	Limit int `form:"limit" validate:"min=0,max=500"`
}

func SetupSearch(router gin.IRouter, logger logger.Logger, service *aggregate.Service, validator *validation.Validator) {
	router.GET("/search", handleSearch(service, logger, validator))
	router.GET("/search/history", handleSearchHistory(service, logger, validator))

}

func handleSearch(service *aggregate.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := SearchRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		query := request.toQuery()
		if query.Mode != aggregate.ModeRecent && len([]rune(query.Text)) < minQueryLength {
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{"query text is too short"})
			return
		}
		if len(query.Organizations) == 0 {
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{"at least one organization is required"})
			return
		}

		token := c.GetString(ContextKeyToken)

		if request.Stream {
			streamSearch(c, service, token, query)
			return
		}

		result := service.Search(c.Request.Context(), token, query)
		writeResponse(c, result, http.StatusOK, nil)
	}
}

func handleSearchHistory(service *aggregate.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := HistoryRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract history params", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate history request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		if request.Limit == 0 {
			request.Limit = defaultHistoryLimit
		}

		entries, err := service.RecentQueries(request.Limit)
		if err != nil {
			logger.Error("could not read search history", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		writeResponse(c, entries, http.StatusOK, nil)
	}
}

// streamSearch emits one SSE event per aggregation snapshot. Each
// snapshot supersedes the previous one; the final event is named done.
func streamSearch(c *gin.Context, service *aggregate.Service, token string, query aggregate.Query) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")

	snapshots := service.SearchStream(c.Request.Context(), token, query)

	c.Stream(func(w io.Writer) bool {
		snapshot, ok := <-snapshots
		if !ok {
			return false
		}

		event := "snapshot"
		if !snapshot.Metadata.Partial {
			event = "done"
		}
		c.SSEvent(event, snapshot)
		return true
	})
}
