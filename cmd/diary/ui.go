package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	brand  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	good   = color.New(color.FgGreen)
	warn   = color.New(color.FgYellow)
	bad    = color.New(color.FgRed)
)

// table prints rows aligned under headers.
func table(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		subtle.Fprintln(w, "  (none)")
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var header, sep strings.Builder
	for i, h := range headers {
		fmt.Fprintf(&header, "  %-*s", widths[i], h)
		sep.WriteString("  " + strings.Repeat("-", widths[i]))
	}
	subtle.Fprintln(w, strings.TrimRight(header.String(), " "))
	subtle.Fprintln(w, sep.String())

	for _, row := range rows {
		var line strings.Builder
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprintf(&line, "  %-*s", widths[i], cell)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
	}
}

// money formats an amount with two decimals and a sign for negatives.
func money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-%.2f", -v)
	}
	return fmt.Sprintf("%.2f", v)
}
