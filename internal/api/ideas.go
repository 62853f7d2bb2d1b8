package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pbaille/sfl/internal/apierr"
	"github.com/pbaille/sfl/internal/domain"
	"github.com/pbaille/sfl/internal/service"
)

func (s *Server) listIdeas(c *gin.Context) {
	opts := domain.ListOptions{
		Type: c.Query("type"),
		Tag:  c.Query("tag"),
		URL:  c.Query("url"),
	}
	if opts.URL == "" {
		opts.URL = c.Query("project")
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.respondError(c, apierr.BadRequestf("invalid limit %q", v))
			return
		}
		opts.Limit = n
	}
	if v := c.Query("cursor"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.respondError(c, apierr.BadRequestf("invalid cursor %q", v))
			return
		}
		opts.Cursor = n
	}

	page, err := s.svc.ListIdeas(c.Request.Context(), opts)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) createIdea(c *gin.Context) {
	var in service.CreateIdeaInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.badJSON(c)
		return
	}
	out, err := s.svc.CreateIdea(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (s *Server) searchIdeas(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.respondError(c, apierr.BadRequestf("invalid limit %q", v))
			return
		}
		limit = n
	}
	ideas, err := s.svc.SearchIdeas(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if ideas == nil {
		ideas = []domain.Idea{}
	}
	c.JSON(http.StatusOK, gin.H{"ideas": ideas})
}

func (s *Server) getIdea(c *gin.Context) {
	detail, err := s.svc.GetIdea(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// updateIdea replaces the idea's content when data is given.
func (s *Server) updateIdea(c *gin.Context) {
	var in service.UpdateIdeaInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.badJSON(c)
		return
	}
	out, err := s.svc.UpdateIdea(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) deleteIdea(c *gin.Context) {
	id := c.Param("id")
	if err := s.svc.DeleteIdea(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (s *Server) fetchContent(c *gin.Context) {
	data, err := s.svc.FetchContent(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

type noteRequest struct {
	Body string `json:"body"`
}

func (s *Server) addNote(c *gin.Context) {
	var in noteRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		s.badJSON(c)
		return
	}
	note, err := s.svc.AddNote(c.Request.Context(), c.Param("id"), in.Body)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"note": note})
}

func (s *Server) updateNote(c *gin.Context) {
	var in noteRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		s.badJSON(c)
		return
	}
	note, err := s.svc.UpdateNote(c.Request.Context(), c.Param("id"), in.Body)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": note})
}

func (s *Server) deleteNote(c *gin.Context) {
	id := c.Param("id")
	if err := s.svc.DeleteNote(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
