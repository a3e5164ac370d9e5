package views

import (
	"html/template"
	"time"

	"github.com/cppla/miniblog/models"
)

// PostView is one rendered post. Text fields are escaped by the template.
type PostView struct {
	ID        string
	Author    string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt *time.Time
	Media     template.HTML
	Image     string
	Video     string
	Likes     int
	CanEdit   bool
	CanDelete bool
	Comments  []CommentView
}

type CommentView struct {
	ID        string
	Author    string
	Text      string
	CreatedAt time.Time
	CanDelete bool
}

// Build turns the posts matching term into view models for viewer. An empty
// viewer is a logged-out visitor and gets no edit or delete controls.
func Build(posts []models.Post, term, viewer string) []PostView {
	visible := Filter(posts, term)
	out := make([]PostView, 0, len(visible))
	for i := range visible {
		out = append(out, BuildPost(&visible[i], viewer))
	}
	return out
}

func BuildPost(p *models.Post, viewer string) PostView {
	owner := p.OwnedBy(viewer)
	v := PostView{
		ID:        p.ID,
		Author:    p.AuthorUsername,
		Title:     p.Title,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Media:     MediaHTML(p.Image, p.Video),
		Image:     p.Image,
		Video:     p.Video,
		Likes:     p.Likes,
		CanEdit:   owner,
		CanDelete: owner,
		Comments:  make([]CommentView, 0, len(p.Comments)),
	}
	for _, c := range p.Comments {
		v.Comments = append(v.Comments, CommentView{
			ID:        c.ID,
			Author:    c.AuthorUsername,
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
			CanDelete: p.CanDeleteComment(viewer, c),
		})
	}
	return v
}
