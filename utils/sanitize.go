package utils

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var mediaPolicy = newMediaPolicy()

// newMediaPolicy admits only post attachment tags: img and video with an
// http(s), relative, or image/video data URI source.
func newMediaPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowAttrs("src").OnElements("img", "video")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^post-media$`)).OnElements("img", "video")
	p.AllowAttrs("alt").OnElements("img")
	p.AllowAttrs("controls").OnElements("video")
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("http", "https")
	p.AllowURLSchemeWithCustomPolicy("data", func(u *url.URL) bool {
		return strings.HasPrefix(u.Opaque, "image/") || strings.HasPrefix(u.Opaque, "video/")
	})
	return p
}

// SanitizeMedia cleans generated attachment markup to prevent XSS attacks.
func SanitizeMedia(input string) string {
	return mediaPolicy.Sanitize(input)
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeFilename reduces an uploaded file name to a plain base name.
func SafeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "upload"
	}
	return name
}
