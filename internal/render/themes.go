package render

import (
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// Markdown style names
const (
	StyleWheat      = "wheat"
	StyleDark       = styles.DarkStyle
	StyleLight      = styles.LightStyle
	StyleDracula    = styles.DraculaStyle
	StyleTokyoNight = styles.TokyoNightStyle
	StylePink       = styles.PinkStyle
	StyleNoTTY      = styles.NoTTYStyle
	StyleASCII      = styles.AsciiStyle
)

// Wheat palette shared by the markdown style and the TUI theme
const (
	wheatPaper = "#FDF6E3"
	wheatStraw = "#F5DEB3"
	wheatAmber = "#FFD54F"
	wheatCream = "#FDF0C2"
	wheatGold  = "#E5C07B"
	wheatInk   = "#5A4A32"
	wheatBrown = "#8B6B2E"
	wheatRust  = "#A0522D"
	wheatFaded = "#9C8A6B"
)

// BuiltinStyle returns the style config of a style defined in this package
func BuiltinStyle(name string) (ansi.StyleConfig, bool) {
	switch name {
	case StyleWheat:
		return wheatStyle(), true
	default:
		return ansi.StyleConfig{}, false
	}
}

// IsBuiltinStyle reports whether style names a style that needs no file
func IsBuiltinStyle(style string) bool {
	if _, ok := BuiltinStyle(style); ok {
		return true
	}
	_, ok := styles.DefaultStyles[style]
	return ok
}

// wheatStyle is the light style used for replies by default
func wheatStyle() ansi.StyleConfig {
	s := styles.LightStyleConfig

	s.Document.Color = str(wheatInk)
	s.BlockQuote.Color = str(wheatFaded)
	s.Heading.Color = str(wheatBrown)
	s.H1.Color = str(wheatInk)
	s.H1.BackgroundColor = str(wheatAmber)
	s.H2.Color = str(wheatBrown)
	s.Link.Color = str(wheatRust)
	s.LinkText.Color = str(wheatBrown)
	s.Strong.Color = str(wheatInk)
	s.HorizontalRule.Color = str(wheatGold)
	s.Code.Color = str(wheatInk)
	s.Code.BackgroundColor = str(wheatCream)
	s.CodeBlock.Color = str(wheatInk)
	s.Table.Color = str(wheatInk)

	return s
}

func str(s string) *string {
	return &s
}

// StyleInfo describes a style for listings
type StyleInfo struct {
	Name        string
	Description string
}

// AvailableStyles returns the markdown styles that can be named in config
func AvailableStyles() []StyleInfo {
	return []StyleInfo{
		{Name: StyleWheat, Description: "Warm light theme (default)"},
		{Name: StyleDark, Description: "Dark theme"},
		{Name: StyleLight, Description: "Light theme for bright terminals"},
		{Name: StyleDracula, Description: "Dracula color scheme"},
		{Name: StyleTokyoNight, Description: "Tokyo Night color scheme"},
		{Name: StylePink, Description: "Pink accents"},
		{Name: StyleNoTTY, Description: "Plain text (no styling)"},
		{Name: StyleASCII, Description: "ASCII-only output"},
	}
}

// StyleNames returns just the style names
func StyleNames() []string {
	list := AvailableStyles()
	names := make([]string, len(list))
	for i, s := range list {
		names[i] = s.Name
	}
	return names
}
