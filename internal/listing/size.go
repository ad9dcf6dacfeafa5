package listing

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var sizeUnits = []string{"B", "kB", "MB", "GB", "TB"}

var defaultPrinter = message.NewPrinter(language.English)

// ReadableFileSize renders size in binary units with at most one fraction
// digit: 1536 -> "1.5 kB", 1048576 -> "1 MB". Sizes <= 0 render as "0".
func ReadableFileSize(size int64) string {
	return readableFileSize(defaultPrinter, size)
}

func readableFileSize(p *message.Printer, size int64) string {
	if size <= 0 {
		return "0"
	}

	unit := 0
	div := int64(1)
	for unit < len(sizeUnits)-1 && size/div >= 1024 {
		div *= 1024
		unit++
	}

	v := float64(size) / float64(div)
	return p.Sprint(number.Decimal(v, number.MaxFractionDigits(1))) + " " + sizeUnits[unit]
}
