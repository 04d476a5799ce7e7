package parser

import (
	"fmt"
	"strings"
)

// strftimeDirectives maps strftime conversions to Go reference layout pieces.
var strftimeDirectives = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'e': "_2",
	'j': "002",
	'H': "15",
	'I': "03",
	'M': "04",
	'S': "05",
	'p': "PM",
	'b': "Jan",
	'h': "Jan",
	'B': "January",
	'a': "Mon",
	'A': "Monday",
	'z': "-0700",
	'Z': "MST",
	'F': "2006-01-02",
	'T': "15:04:05",
	'D': "01/02/06",
	'R': "15:04",
	'%': "%",
}

// TranslateStrftime converts a strftime format such as "%F %T" into the
// equivalent Go layout. Formats without a '%' are returned unchanged.
func TranslateStrftime(format string) (string, error) {
	if !strings.Contains(format, "%") {
		return format, nil
	}

	var b strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			b.WriteByte(format[i])
			continue
		}
		if i+1 >= len(format) {
			return "", fmt.Errorf("time format %q ends with a bare %%", format)
		}
		piece, ok := strftimeDirectives[format[i+1]]
		if !ok {
			return "", fmt.Errorf("time format %q: unsupported directive %%%c", format, format[i+1])
		}
		b.WriteString(piece)
		i++
	}

	return b.String(), nil
}
