package taml

// registry.go - The fixed TAML tag vocabulary.
// The set is constant for the lifetime of the process, so lookups need no
// locking and parses may run concurrently.

// TagCount is the size of the tag vocabulary.
const TagCount = 37

// registeredTagNames lists every valid tag name in canonical order:
// colors, bright colors, backgrounds, bright backgrounds, styles.
var registeredTagNames = []string{
	// Standard foreground colors.
	"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white",

	// Bright foreground colors.
	"brightBlack", "brightRed", "brightGreen", "brightYellow",
	"brightBlue", "brightMagenta", "brightCyan", "brightWhite",

	// Standard backgrounds.
	"bgBlack", "bgRed", "bgGreen", "bgYellow",
	"bgBlue", "bgMagenta", "bgCyan", "bgWhite",

	// Bright backgrounds.
	"bgBrightBlack", "bgBrightRed", "bgBrightGreen", "bgBrightYellow",
	"bgBrightBlue", "bgBrightMagenta", "bgBrightCyan", "bgBrightWhite",

	// Text styles.
	"bold", "dim", "italic", "underline", "strikethrough",
}

// validTagNames is the lookup set over registeredTagNames.
var validTagNames = make(map[string]bool, TagCount)

func init() {
	for _, name := range registeredTagNames {
		validTagNames[name] = true
	}
}

// IsValidTagName reports whether name is one of the 37 registered tag
// names. Matching is exact and case-sensitive: "Red" is not a valid name.
func IsValidTagName(name string) bool {
	return validTagNames[name]
}

// TagNames returns the registered tag names in canonical order. The
// returned slice is a copy and may be modified freely.
func TagNames() []string {
	names := make([]string, len(registeredTagNames))
	copy(names, registeredTagNames)
	return names
}
