package main

import (
	"encoding/json"
	"fmt"
	"strings"
)

// emit writes v as indented JSON when --json is set, otherwise calls text.
func (a *app) emit(v any, text func()) error {
	if !a.jsonOut {
		text()
		return nil
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printf(format string, v ...any) {
	fmt.Fprintf(a.out, format, v...)
}

func kcal(v float64) string {
	return fmt.Sprintf("%.0f kcal", v)
}

func bar(percent float64, width int) string {
	n := int(percent / 100 * float64(width))
	if n < 0 {
		n = 0
	}
	if n > width {
		n = width
	}
	return "[" + strings.Repeat("#", n) + strings.Repeat(".", width-n) + "]"
}
