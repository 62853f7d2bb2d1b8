package api

import (
	"github.com/gin-gonic/gin"

	"github.com/pbaille/sfl/internal/apierr"
)

// respondError writes {"error": msg}. Only unexpected failures are logged;
// request-scoped errors are the caller's problem.
func (s *Server) respondError(c *gin.Context, err error) {
	status := apierr.Status(err)
	if apierr.KindOf(err) == apierr.Internal {
		s.log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) badJSON(c *gin.Context) {
	s.respondError(c, apierr.BadRequestf("invalid JSON body"))
}
