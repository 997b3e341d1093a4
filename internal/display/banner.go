package display

import (
	"fmt"
	"io"

	"github.com/ranjanmadhu/pdf-compressor/internal/term"
)

const banner = `            _  __                                             
 _ __   __| |/ _| ___ ___  _ __ ___  _ __  _ __ ___  ___ ___ 
| '_ \ / _` + "`" + ` | |_ / __/ _ \| '_ ` + "`" + ` _ \| '_ \| '__/ _ \/ __/ __|
| |_) | (_| |  _| (_| (_) | | | | | | |_) | | |  __/\__ \__ \
| .__/ \__,_|_|  \___\___/|_| |_| |_| .__/|_|  \___||___/___/
|_|                                 |_|                       
`

// PrintBanner writes the ASCII art banner and version line to w, in magenta
// when the palette is enabled.
func PrintBanner(w io.Writer, colors term.Palette, version string) {
	fmt.Fprint(w, colors.Magenta+banner+colors.NC)
	fmt.Fprintf(w, "  v%s\n\n", version)
}
