// Package sgr maps TAML tag names to SGR (Select Graphic Rendition)
// terminal escape sequences and converts legacy escape-sequence text back
// into TAML markup.
//
// The mapping is a fixed table covering exactly the 37 registered tag
// names. Foreground colors share the default-foreground exit (39),
// backgrounds share 49, and each text style has its own exit code except
// bold and dim, which the terminal cancels together (22).
package sgr

import (
	"sort"
	"strconv"
)

// slot identifies which piece of terminal state a tag occupies. Two tags
// in the same slot override each other; tags in different slots combine.
type slot int

const (
	slotForeground slot = iota
	slotBackground
	slotBold
	slotDim
	slotItalic
	slotUnderline
	slotStrikethrough
)

// Exit parameters shared across table entries.
const (
	exitForeground    = 39
	exitBackground    = 49
	exitIntensity     = 22 // cancels bold and dim together
	exitItalic        = 23
	exitUnderline     = 24
	exitStrikethrough = 29
)

// info is one table entry: the SGR parameters for a tag.
type info struct {
	enter int
	exit  int
	slot  slot
}

// table is the complete tag vocabulary with its SGR parameters. It must
// cover the parser's registry exactly; the selfcheck suite verifies that.
var table = map[string]info{
	// Standard foreground colors.
	"black":   {enter: 30, exit: exitForeground, slot: slotForeground},
	"red":     {enter: 31, exit: exitForeground, slot: slotForeground},
	"green":   {enter: 32, exit: exitForeground, slot: slotForeground},
	"yellow":  {enter: 33, exit: exitForeground, slot: slotForeground},
	"blue":    {enter: 34, exit: exitForeground, slot: slotForeground},
	"magenta": {enter: 35, exit: exitForeground, slot: slotForeground},
	"cyan":    {enter: 36, exit: exitForeground, slot: slotForeground},
	"white":   {enter: 37, exit: exitForeground, slot: slotForeground},

	// Bright foreground colors.
	"brightBlack":   {enter: 90, exit: exitForeground, slot: slotForeground},
	"brightRed":     {enter: 91, exit: exitForeground, slot: slotForeground},
	"brightGreen":   {enter: 92, exit: exitForeground, slot: slotForeground},
	"brightYellow":  {enter: 93, exit: exitForeground, slot: slotForeground},
	"brightBlue":    {enter: 94, exit: exitForeground, slot: slotForeground},
	"brightMagenta": {enter: 95, exit: exitForeground, slot: slotForeground},
	"brightCyan":    {enter: 96, exit: exitForeground, slot: slotForeground},
	"brightWhite":   {enter: 97, exit: exitForeground, slot: slotForeground},

	// Standard backgrounds.
	"bgBlack":   {enter: 40, exit: exitBackground, slot: slotBackground},
	"bgRed":     {enter: 41, exit: exitBackground, slot: slotBackground},
	"bgGreen":   {enter: 42, exit: exitBackground, slot: slotBackground},
	"bgYellow":  {enter: 43, exit: exitBackground, slot: slotBackground},
	"bgBlue":    {enter: 44, exit: exitBackground, slot: slotBackground},
	"bgMagenta": {enter: 45, exit: exitBackground, slot: slotBackground},
	"bgCyan":    {enter: 46, exit: exitBackground, slot: slotBackground},
	"bgWhite":   {enter: 47, exit: exitBackground, slot: slotBackground},

	// Bright backgrounds.
	"bgBrightBlack":   {enter: 100, exit: exitBackground, slot: slotBackground},
	"bgBrightRed":     {enter: 101, exit: exitBackground, slot: slotBackground},
	"bgBrightGreen":   {enter: 102, exit: exitBackground, slot: slotBackground},
	"bgBrightYellow":  {enter: 103, exit: exitBackground, slot: slotBackground},
	"bgBrightBlue":    {enter: 104, exit: exitBackground, slot: slotBackground},
	"bgBrightMagenta": {enter: 105, exit: exitBackground, slot: slotBackground},
	"bgBrightCyan":    {enter: 106, exit: exitBackground, slot: slotBackground},
	"bgBrightWhite":   {enter: 107, exit: exitBackground, slot: slotBackground},

	// Text styles.
	"bold":          {enter: 1, exit: exitIntensity, slot: slotBold},
	"dim":           {enter: 2, exit: exitIntensity, slot: slotDim},
	"italic":        {enter: 3, exit: exitItalic, slot: slotItalic},
	"underline":     {enter: 4, exit: exitUnderline, slot: slotUnderline},
	"strikethrough": {enter: 9, exit: exitStrikethrough, slot: slotStrikethrough},
}

// Sequence is the escape-sequence pair for one tag: Enter switches the
// styling on, Exit switches it back off.
type Sequence struct {
	Enter string
	Exit  string
}

// Info describes the SGR parameters of one tag for callers that need the
// numeric codes rather than the rendered sequences.
type Info struct {
	Tag   string `json:"tag"`
	Enter int    `json:"enter"`
	Exit  int    `json:"exit"`
}

var (
	sequences  = make(map[string]Sequence, len(table))
	enterCodes = make(map[int]string, len(table))
)

func init() {
	for tag, in := range table {
		sequences[tag] = Sequence{Enter: csi(in.enter), Exit: csi(in.exit)}
		enterCodes[in.enter] = tag
	}
}

// csi renders a single-parameter SGR sequence.
func csi(param int) string {
	return "\x1b[" + strconv.Itoa(param) + "m"
}

// Lookup returns the escape sequences for tag. The second return is false
// for names outside the vocabulary.
func Lookup(tag string) (Sequence, bool) {
	seq, ok := sequences[tag]
	return seq, ok
}

// InfoFor returns the numeric SGR parameters for tag.
func InfoFor(tag string) (Info, bool) {
	in, ok := table[tag]
	if !ok {
		return Info{}, false
	}
	return Info{Tag: tag, Enter: in.enter, Exit: in.exit}, true
}

// TagForCode returns the tag whose enter parameter is code. Exit and reset
// parameters have no tag.
func TagForCode(code int) (string, bool) {
	tag, ok := enterCodes[code]
	return tag, ok
}

// RestoreAfter returns the enter sequences to emit after closing child so
// that the styling of the still-open ancestors is back in force. The exit
// of child may have cancelled an ancestor in the same state slot (a color
// inside a color, dim inside bold); the nearest such ancestor per slot is
// re-entered, outermost first. ancestors runs outermost-first.
func RestoreAfter(child string, ancestors []string) []string {
	ci, ok := table[child]
	if !ok {
		return nil
	}
	nearest := make(map[slot]int)
	for i, a := range ancestors {
		ai, ok := table[a]
		if !ok || ai.exit != ci.exit {
			continue
		}
		nearest[ai.slot] = i // inner occurrences overwrite outer ones
	}
	if len(nearest) == 0 {
		return nil
	}
	idxs := make([]int, 0, len(nearest))
	for _, i := range nearest {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	out := make([]string, len(idxs))
	for j, i := range idxs {
		out[j] = csi(table[ancestors[i]].enter)
	}
	return out
}

// closedBy reports whether SGR parameter p terminates an open tag. A full
// reset closes everything; otherwise p must be the tag's exit code.
func closedBy(p int, tag string) bool {
	if p == 0 {
		return true
	}
	in, ok := table[tag]
	return ok && p == in.exit
}

// sameSlot reports whether two tags occupy the same state slot.
func sameSlot(a, b string) bool {
	ai, aok := table[a]
	bi, bok := table[b]
	return aok && bok && ai.slot == bi.slot
}
