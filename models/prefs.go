package models

import "time"

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Draft is an unsent post kept per context.
type Draft struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidTheme reports whether t is a known theme name.
func ValidTheme(t string) bool {
	return t == ThemeLight || t == ThemeDark
}
