package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duynguyendang/airdata/pkg/common/errors"
	"github.com/duynguyendang/airdata/pkg/survey"
)

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}

// handleDatasets returns a list of available datasets.
func (s *Server) handleDatasets(c *gin.Context) {
	datasets, err := s.manager.List()
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, datasets)
}

// handleStructure returns the survey structure listing, optionally ordered
// by ?sort_by=.
func (s *Server) handleStructure(c *gin.Context) {
	a, ok := s.analyzer(c)
	if !ok {
		return
	}

	table, err := a.SurveyStructure(survey.StructureOptions{SortBy: c.Query("sort_by")})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

// handleSearch matches questions against ?q=. An empty term matches all
// questions, mirroring the analyzer's documented policy.
func (s *Server) handleSearch(c *gin.Context) {
	a, ok := s.analyzer(c)
	if !ok {
		return
	}

	table, err := a.SearchQuestions(survey.SearchOptions{Term: c.Query("q")})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

// handleSubset returns the respondents who answered ?option= for ?column=.
func (s *Server) handleSubset(c *gin.Context) {
	a, ok := s.analyzer(c)
	if !ok {
		return
	}

	column := c.Query("column")
	if column == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing column parameter", nil))
		return
	}

	table, err := a.RespondentSubset(survey.SubsetOptions{
		Column: column,
		Option: c.Query("option"),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

// handleDistribution returns the answer distribution for ?column=.
func (s *Server) handleDistribution(c *gin.Context) {
	a, ok := s.analyzer(c)
	if !ok {
		return
	}

	column := c.Query("column")
	if column == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing column parameter", nil))
		return
	}

	table, err := a.AnswerDistribution(survey.DistributionOptions{Column: column})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

// analyzer resolves the dataset from the route and writes the error response
// itself when resolution fails.
func (s *Server) analyzer(c *gin.Context) (*survey.Analyzer, bool) {
	a, err := s.manager.Get(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return nil, false
	}
	return a, true
}

func handleError(c *gin.Context, err error) {
	appErr := errors.MapError(err)
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
}
