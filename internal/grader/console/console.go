// Package console renders live evaluation output under a running banner and
// multiplexes the two output streams of a test command onto it.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Console is the shared terminal sink. It remembers whether the last byte
// written ended a line so that banners always start on a fresh line.
//
// Console is not safe for concurrent use; while a Multiplexer drains, only
// its writer goroutine touches the console.
type Console struct {
	out     io.Writer
	clean   bool
	padding string

	bannerStyle lipgloss.Style
	passStyle   lipgloss.Style
	failStyle   lipgloss.Style
	warnStyle   lipgloss.Style
}

// New creates a console writing to out. Styling is disabled automatically
// when out is not a terminal.
func New(out io.Writer) *Console {
	r := lipgloss.NewRenderer(out)
	return &Console{
		out:         out,
		clean:       true,
		bannerStyle: r.NewStyle().Bold(true),
		passStyle:   r.NewStyle().Foreground(lipgloss.Color("2")),
		failStyle:   r.NewStyle().Foreground(lipgloss.Color("1")),
		warnStyle:   r.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

// Clean reports whether the last byte written was a newline.
func (c *Console) Clean() bool {
	return c.clean
}

// Padding is the indentation reproduced after every newline of child output.
func (c *Console) Padding() string {
	return c.padding
}

// FreshLine moves the cursor to the start of an empty line: a carriage
// return when the line is clean (only padding follows the newline),
// otherwise a newline.
func (c *Console) FreshLine() {
	if c.clean {
		c.write("\r")
	} else {
		c.write("\n")
	}
	c.clean = true
}

// Banner prints the "[submission/total #criterion]" prefix and sets the
// padding to its width. Widths are fixed per run so the padding does not
// jump between submissions.
func (c *Console) Banner(submission, total, criterion, criteria int) {
	text := FormatBanner(submission, total, criterion, criteria)
	c.FreshLine()
	c.padding = strings.Repeat(" ", lipgloss.Width(text))
	c.write(c.bannerStyle.Render(text))
}

// FormatBanner renders the banner text without styling.
func FormatBanner(submission, total, criterion, criteria int) string {
	sw := len(fmt.Sprint(total))
	cw := len(fmt.Sprint(criteria))
	return fmt.Sprintf("[%*d/%d #%*d] ", sw, submission, total, cw, criterion)
}

// Output writes a chunk of child output, reproducing the padding after
// every newline.
func (c *Console) Output(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	text := string(chunk)
	if c.padding != "" {
		text = strings.ReplaceAll(text, "\n", "\n"+c.padding)
	}
	_, _ = io.WriteString(c.out, text)
	c.clean = chunk[len(chunk)-1] == '\n'
}

// Printf writes unpadded text at the current cursor position.
func (c *Console) Printf(format string, args ...interface{}) {
	c.write(fmt.Sprintf(format, args...))
}

// Linef prints one unpadded line starting on a fresh line.
func (c *Console) Linef(format string, args ...interface{}) {
	c.FreshLine()
	c.write(fmt.Sprintf(format, args...) + "\n")
}

// Verdict prints the outcome of one criterion on a fresh line.
func (c *Console) Verdict(passed bool, points, max float64, description string) {
	c.FreshLine()
	mark := c.failStyle.Render("FAIL")
	if passed {
		mark = c.passStyle.Render("PASS")
	}
	c.write(fmt.Sprintf("%s%s %g/%g %s\n", c.padding, mark, points, max, description))
}

// Warnf prints a highlighted warning on a fresh line.
func (c *Console) Warnf(format string, args ...interface{}) {
	c.FreshLine()
	c.write(c.warnStyle.Render("warning: "+fmt.Sprintf(format, args...)) + "\n")
}

func (c *Console) write(s string) {
	if s == "" {
		return
	}
	_, _ = io.WriteString(c.out, s)
	c.clean = s[len(s)-1] == '\n'
}
