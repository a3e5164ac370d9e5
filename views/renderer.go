package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/cppla/miniblog/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is the data every template receives.
type Page struct {
	Title         string
	Theme         string
	Viewer        *models.Session
	Alert         string
	Notice        string
	Search        string
	Posts         []PostView
	Draft         *models.Draft
	Edit          *PostView
	Profile       *models.User
	Notifications []models.Notification
	Unread        int
	CanClear      bool
	Remote        bool
}

// ViewerName is the username of the viewer, or "" when logged out.
func (p Page) ViewerName() string {
	if p.Viewer == nil {
		return ""
	}
	return p.Viewer.Username
}

// SetPosts builds the post views for the page's viewer and search term.
// The remote post API cannot edit, so edit controls are dropped there.
func (p *Page) SetPosts(posts []models.Post) {
	p.Posts = Build(posts, p.Search, p.ViewerName())
	if p.Remote {
		for i := range p.Posts {
			p.Posts[i].CanEdit = false
		}
	}
}

// Renderer executes the embedded page templates.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// MustRenderer panics if the embedded templates do not parse.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Template returns the parsed set, for installing into gin.
func (r *Renderer) Template() *template.Template { return r.tmpl }

// Render writes the full post list page. There is no partial update; every
// call renders the whole list.
func (r *Renderer) Render(w io.Writer, page Page) error {
	return r.RenderPage(w, "index.html", page)
}

func (r *Renderer) RenderPage(w io.Writer, name string, page Page) error {
	if page.Theme == "" {
		page.Theme = models.ThemeLight
	}
	return r.tmpl.ExecuteTemplate(w, name, page)
}

// Funcs are the helpers available to the templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"timefmt": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("2006-01-02 15:04")
		},
		"image": func(src string) template.HTML {
			return MediaHTML(src, "")
		},
	}
}
