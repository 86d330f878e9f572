package sgr

import (
	"strings"
	"testing"

	"github.com/suin/go-taml/core/taml"
)

func FuzzConvert(f *testing.F) {
	// Plain text.
	f.Add("hello world")
	f.Add("a < b & c")

	// Well-formed styling.
	f.Add("\x1b[31mred\x1b[0m")
	f.Add("\x1b[1;4;31mall at once\x1b[m")
	f.Add("\x1b[41m\x1b[97mbanner\x1b[0m")

	// Overlapping and unbalanced styling.
	f.Add("\x1b[1mbold \x1b[31mboth\x1b[22m red\x1b[0m")
	f.Add("\x1b[31mnever closed")
	f.Add("\x1b[39m\x1b[49m\x1b[22m")

	// Inputs the converter must reject without panicking.
	f.Add("\x1b[38;5;196mx")
	f.Add("\x1b[2J")
	f.Add("\x1b[31")
	f.Add("\x1b")
	f.Add(strings.Repeat("\x1b[31m\x1b[34m", 60))

	f.Fuzz(func(t *testing.T, input string) {
		out, err := Convert(input)
		if err != nil {
			return
		}
		if strings.ContainsRune(out, 0x1b) {
			t.Errorf("Convert(%q) = %q, contains a raw escape byte", input, out)
		}
		if _, err := taml.Parse(out); err != nil {
			t.Fatalf("Convert(%q) = %q, output does not parse: %v", input, out, err)
		}
	})
}
