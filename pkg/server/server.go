// Package server exposes the survey analyzer operations over REST. It is a
// display-layer collaborator: every request resolves a dataset through the
// manager and calls the analyzer's read operations.
package server

import (
	"github.com/gin-gonic/gin"

	"github.com/duynguyendang/airdata/internal/manager"
)

// Server holds the state for the REST API server.
type Server struct {
	manager *manager.Manager
	router  *gin.Engine
}

// NewServer creates a new Server instance.
func NewServer(mgr *manager.Manager) *Server {
	r := gin.Default()
	s := &Server{
		manager: mgr,
		router:  r,
	}
	s.setupRoutes()
	return s
}

// Run starts the server on the specified address.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/v1/datasets", s.handleDatasets)
	s.router.GET("/v1/datasets/:id/structure", s.handleStructure)
	s.router.GET("/v1/datasets/:id/search", s.handleSearch)
	s.router.GET("/v1/datasets/:id/subset", s.handleSubset)
	s.router.GET("/v1/datasets/:id/distribution", s.handleDistribution)
}
