package views

import (
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/cppla/miniblog/utils"
)

// MediaHTML builds the attachment markup of a post. Sources are escaped and
// the result is sanitized, so it is safe to emit unescaped.
func MediaHTML(image, video string) template.HTML {
	var b strings.Builder
	if image != "" {
		fmt.Fprintf(&b, `<img class="post-media" src="%s" alt="">`, html.EscapeString(image))
	}
	if video != "" {
		fmt.Fprintf(&b, `<video class="post-media" src="%s" controls></video>`, html.EscapeString(video))
	}
	if b.Len() == 0 {
		return ""
	}
	return template.HTML(utils.SanitizeMedia(b.String()))
}
