package nekodeps

import "fmt"

// color-compatible printer interface (works with *color.Theme and *color.Style)
type colorPrinter interface {
	Printf(format string, a ...any)
	Println(a ...any)
}

// cPrintf prints with a colored style or falls back to fmt.Printf when nil
func cPrintf(p colorPrinter, format string, a ...any) {
	if p == nil {
		fmt.Printf(format, a...)
		return
	}
	p.Printf(format, a...)
}

// debugf prints debug messages when Debug is true
func debugf(format string, args ...any) {
	if Debug {
		fmt.Printf(format, args...)
	}
}

// step prints an arrow-prefixed progress line.
func step(format string, a ...any) {
	colArrow.Print("-> ")
	cPrintf(colSuccess, format+"\n", a...)
}

// warnf prints an arrow-prefixed warning line.
func warnf(format string, a ...any) {
	colArrow.Print("-> ")
	cPrintf(colWarn, format+"\n", a...)
}
