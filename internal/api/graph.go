package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pbaille/sfl/internal/domain"
	"github.com/pbaille/sfl/internal/service"
)

func (s *Server) createConnection(c *gin.Context) {
	var in service.CreateConnectionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.badJSON(c)
		return
	}
	conn, err := s.svc.CreateConnection(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"connection": conn})
}

func (s *Server) deleteConnection(c *gin.Context) {
	id := c.Param("id")
	if err := s.svc.DeleteConnection(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (s *Server) listTags(c *gin.Context) {
	tags, err := s.svc.ListTags(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	if tags == nil {
		tags = []domain.Tag{}
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

func (s *Server) graph(c *gin.Context) {
	g, err := s.svc.Graph(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (s *Server) neighbors(c *gin.Context) {
	n, err := s.svc.Neighbors(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}
