package output

import (
	"io"
	"strconv"

	"golang.org/x/term"
)

// ColorMode controls highlighting in the report format.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // highlight only when writing to a terminal
	ColorAlways
	ColorNever
)

// SGR escape sequences used by the report.
const (
	sgrReset  = "\x1b[0m"
	sgrBold   = "\x1b[1m"
	sgrYellow = "\x1b[33m"
)

// fileDescriptor is satisfied by *os.File.
type fileDescriptor interface {
	Fd() uintptr
}

// reportStyle decorates report headings and counts. The zero value
// renders plain text.
type reportStyle struct {
	enabled bool
}

func newReportStyle(mode ColorMode, w io.Writer) reportStyle {
	switch mode {
	case ColorAlways:
		return reportStyle{enabled: true}
	case ColorAuto:
		f, ok := w.(fileDescriptor)
		return reportStyle{enabled: ok && term.IsTerminal(int(f.Fd()))}
	}
	return reportStyle{}
}

// heading renders a cluster pattern or the total label, colon included.
func (s reportStyle) heading(text string) string {
	return s.wrap(sgrBold, text+":")
}

func (s reportStyle) count(n uint64) string {
	return s.wrap(sgrYellow, strconv.FormatUint(n, 10))
}

func (s reportStyle) wrap(sgr, text string) string {
	if !s.enabled {
		return text
	}
	return sgr + text + sgrReset
}
