// Package banner renders the startup banner shown before every command.
package banner

import (
	"io"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

// Title is the text rendered in the banner.
const Title = "DotPkg Manager"

// Font is the FIGlet font used for the banner.
const Font = "standard"

// Render returns the ASCII-art banner for Title.
func Render() string {
	return figure.NewFigure(Title, Font, true).String()
}

// Print writes the banner to w in cyan. Color is dropped automatically when
// color.NoColor is set (non-tty output, NO_COLOR).
func Print(w io.Writer) {
	_, _ = color.New(color.FgCyan).Fprintln(w, Render())
}
