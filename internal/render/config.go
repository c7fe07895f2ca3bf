package render

import (
	"os"

	"github.com/diogo/chatstream/internal/config"
)

// Options controls how replies are turned into terminal markdown.
// The zero value is not useful; start from DefaultOptions or OptionsFromConfig.
type Options struct {
	Width int    // wrap column
	Style string // built-in glamour style or a JSON style file

	EnableEmoji      bool
	PreserveNewLines bool
	TableWrap        bool // wrap wide cells rather than cut them
	InlineTableLinks bool
}

// DefaultOptions matches the defaults of config.MarkdownConfig at 80 columns
func DefaultOptions() Options {
	return Options{
		Width:            80,
		Style:            StyleWheat,
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
	}
}

// OptionsFromConfig builds render options from the markdown section of the
// user configuration. GLAMOUR_STYLE, when set, wins over the configured style.
func OptionsFromConfig(md config.MarkdownConfig) Options {
	opts := DefaultOptions()

	if md.Style != "" {
		opts.Style = md.Style
	}
	opts.EnableEmoji = md.EnableEmoji
	opts.PreserveNewLines = md.PreserveNewLines
	opts.TableWrap = md.TableWrap
	opts.InlineTableLinks = md.InlineTableLinks

	if style := os.Getenv("GLAMOUR_STYLE"); style != "" {
		opts.Style = style
	}

	return opts
}

// WithWidth returns a copy wrapping at width
func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

// WithStyle returns a copy using style
func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}

func (o Options) WithEmoji(enabled bool) Options {
	o.EnableEmoji = enabled
	return o
}
