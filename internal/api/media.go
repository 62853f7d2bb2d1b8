package api

import (
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pbaille/sfl/internal/apierr"
)

const maxUploadBytes = 32 << 20

func (s *Server) uploadMedia(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		s.respondError(c, apierr.BadRequestf("file field required"))
		return
	}
	if fh.Size > maxUploadBytes {
		s.respondError(c, apierr.BadRequestf("file too large"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.respondError(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	body, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		s.respondError(c, fmt.Errorf("read upload: %w", err))
		return
	}

	m, err := s.svc.UploadMedia(c.Request.Context(), c.Param("id"), fh.Filename, fh.Header.Get("Content-Type"), body)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"media": m})
}

type fetchMediaRequest struct {
	URL string `json:"url"`
}

func (s *Server) fetchMedia(c *gin.Context) {
	var in fetchMediaRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		s.badJSON(c)
		return
	}
	if in.URL == "" {
		s.respondError(c, apierr.BadRequestf("url is required"))
		return
	}
	m, err := s.svc.FetchMedia(c.Request.Context(), c.Param("id"), in.URL)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"media": m})
}

// serveMedia streams the stored bytes of one attachment.
func (s *Server) serveMedia(c *gin.Context) {
	obj, err := s.svc.OpenMedia(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	disposition := mime.FormatMediaType("inline", map[string]string{"filename": obj.Media.Filename})
	if disposition == "" {
		disposition = "inline"
	}
	c.Header("Content-Disposition", disposition)
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, obj.Media.MimeType, obj.Body)
}

func (s *Server) deleteMedia(c *gin.Context) {
	id := c.Param("id")
	if err := s.svc.DeleteMedia(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
