package views

import (
	"strings"

	"github.com/cppla/miniblog/models"
)

// Filter returns the posts whose title, content or author contains term,
// ignoring case, in their original order. An empty term matches everything.
func Filter(posts []models.Post, term string) []models.Post {
	if term == "" {
		return posts
	}
	needle := strings.ToLower(term)
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Title), needle) ||
			strings.Contains(strings.ToLower(p.Content), needle) ||
			strings.Contains(strings.ToLower(p.AuthorUsername), needle) {
			out = append(out, p)
		}
	}
	return out
}
