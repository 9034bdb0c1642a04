package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sumitmalik51/gitsecureops/db/searchdb"
	"github.com/sumitmalik51/gitsecureops/logger"
	"github.com/sumitmalik51/gitsecureops/validation"
)

const (
	defaultResultsPerPage = 20
	pruneBatchSize        = 500
)

type ActivityRequest struct {
	Query   string `form:"query" validate:"valid_query,max=1000"`
	PerPage int    `form:"per_page" validate:"min=0,max=100"`
	Page    int    `form:"page" validate:"min=0"`
}

// PruneRequest names the documents to evict from the local index. The
// query is required so a stray request cannot empty the whole index.
type PruneRequest struct {
	Query string `form:"query" validate:"required,valid_query,max=1000"`
}

type PruneResponse struct {
	Deleted int `json:"deleted"`
}

func (r *ActivityRequest) setDefaults() {
	if r.PerPage == 0 {
		r.PerPage = defaultResultsPerPage
	}

	if r.Page == 0 {
		r.Page = 1
	}
}

type ActivityResponse struct {
	Results      []searchdb.Result `json:"results"`
	TotalIndexed uint64            `json:"total_indexed"`
	PageDetails  Pagination        `json:"page_details"`
}

// SetupActivity serves the local index of previously aggregated items,
// so the console's recent-activity panel works without provider calls.
func SetupActivity(router gin.IRouter, logger logger.Logger, searchDB searchdb.DB, validator *validation.Validator) {
	router.GET("/activity", handleActivity(searchDB, logger, validator))
	router.DELETE("/activity", handlePruneActivity(searchDB, logger, validator))

}

func handleActivity(searchDB searchdb.DB, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := ActivityRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from activity request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request parameters"})
			return
		}
		request.setDefaults()

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate activity request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		limit := request.PerPage
		offset := (request.Page - 1) * request.PerPage
		results, err := searchDB.Search(request.Query, limit, offset)
		if err != nil {
			logger.Error("activity search failed", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		// The index size is a nicety on this response; a counting
		// failure must not hide the results themselves.
		totalIndexed, err := searchDB.GetDocCount()
		if err != nil {
			logger.Warn("could not count indexed documents", "err", err.Error())
		}

		activityResponse := ActivityResponse{
			Results:      results.Results,
			TotalIndexed: totalIndexed,
			PageDetails: calculatePagination(
				int(results.Total),
				limit,
				offset),
		}

		writeResponse(c, activityResponse, http.StatusOK, nil)
	}
}

// handlePruneActivity evicts every indexed document matching the query,
// batch by batch, so stale activity can be cleared without rebuilding
// the index.
func handlePruneActivity(searchDB searchdb.DB, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := PruneRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from prune request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate prune request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		deleted := 0
		for {
			results, err := searchDB.Search(request.Query, pruneBatchSize, 0)
			if err != nil {
				logger.Error("prune search failed", "err", err.Error())
				c.Abort()
				writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
				return
			}
			if len(results.Results) == 0 {
				break
			}

			ids := make([]string, len(results.Results))
			for i, result := range results.Results {
				ids[i] = result.ID
			}
			if err := searchDB.DeleteDocuments(ids); err != nil {
				logger.Error("prune delete failed", "err", err.Error())
				c.Abort()
				writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
				return
			}
			deleted += len(ids)

			if len(results.Results) < pruneBatchSize {
				break
			}
		}

		logger.Info("pruned activity index", "query", request.Query, "deleted", deleted)
		writeResponse(c, PruneResponse{Deleted: deleted}, http.StatusOK, nil)
	}
}
