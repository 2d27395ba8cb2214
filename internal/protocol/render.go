package protocol

import (
	"bufio"
	"io"

	"github.com/fatih/color"
)

var glyphs = [MaxIntensity + 1]string{"·", "░", "▒", "█"}

var intensityColors = [MaxIntensity + 1]*color.Color{
	color.New(color.FgHiBlack),
	color.New(color.FgRed),
	color.New(color.FgYellow),
	color.New(color.FgHiWhite, color.Bold),
}

func init() {
	// Colorizing is an explicit choice of the caller, not of color.NoColor.
	for _, c := range intensityColors {
		c.EnableColor()
	}
}

// Render draws a terminal preview of the frame, one glyph per pixel.
// Out-of-range values are drawn as '?'.
func (f Frame) Render(w io.Writer, colorize bool) error {
	bw := bufio.NewWriter(w)
	for _, row := range f {
		for _, px := range row {
			if px < 0 || px > MaxIntensity {
				bw.WriteString("?")
				continue
			}
			if colorize {
				intensityColors[px].Fprint(bw, glyphs[px])
				continue
			}
			bw.WriteString(glyphs[px])
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}
