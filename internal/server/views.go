package server

import (
	"yatube/internal/models"
	"yatube/internal/pagination"
)

// postView is a post as rendered in listings, with its media addresses resolved.
type postView struct {
	models.Post
	ImageURL   string `json:"image_url,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
}

func (s *Server) viewPost(p models.Post) postView {
	v := postView{Post: p}
	if p.Image != "" {
		v.ImageURL = s.media.URL(p.Image)
	}
	if p.ImagePreview != "" {
		v.PreviewURL = s.media.URL(p.ImagePreview)
	}
	return v
}

func (s *Server) viewPage(p pagination.Page[models.Post]) pagination.Page[postView] {
	return pagination.Map(p, s.viewPost)
}
