// Package translate formats user-visible assembler messages for the host locale.
package translate

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printer     *message.Printer
	printerOnce sync.Once
)

// fallback is used when the host reports no usable locale.
var fallback = language.AmericanEnglish

func setup() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("pasm: locale: %v", err)
	}

	if len(locales) == 0 {
		printer = message.NewPrinter(fallback)
		return
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	printerOnce.Do(setup)
	return printer.Sprintf(key, args...)
}

// Fprintf translates an en-US format and writes it to w.
func Fprintf(w io.Writer, key message.Reference, args ...any) (n int, err error) {
	printerOnce.Do(setup)
	return printer.Fprintf(w, key, args...)
}

// Hex formats a value as fixed-width hexadecimal. Numbers are never
// localised in code listings.
func Hex(width int, value uint32) string {
	return fmt.Sprintf("0x%0*x", width, value)
}
