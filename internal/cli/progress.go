package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/forPelevin/audioconv/internal/types"
	"golang.org/x/term"
)

const barWidth = 30

// progressRenderer draws a single updating bar on a terminal and plain
// message lines everywhere else.
type progressRenderer struct {
	out   io.Writer
	tty   bool
	drawn bool
}

func newProgressRenderer(out io.Writer) *progressRenderer {
	return &progressRenderer{out: out, tty: isTerminal(out)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" || strings.ToLower(os.Getenv("TERM")) == "dumb" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func (r *progressRenderer) Report(p types.Progress) {
	if !r.tty {
		fmt.Fprintln(r.out, p.Message)
		return
	}
	fmt.Fprintf(r.out, "\r%s %3d%%  %-24s", bar(p.Percent), p.Percent, p.Message)
	r.drawn = true
}

// Close terminates the bar line so following output starts on a new line.
func (r *progressRenderer) Close() {
	if r.drawn {
		fmt.Fprintln(r.out)
		r.drawn = false
	}
}

func bar(percent int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * barWidth / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}
