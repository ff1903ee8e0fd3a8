// Package address converts line highlight selections to and from the URL
// fragment form used in shared paste links, e.g. "1L2-L4,2L5".
package address

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrEmptySpec is returned by Encode when there is nothing to encode.
	ErrEmptySpec = errors.New("address: empty highlight specification")
	// ErrInvalidRange is returned by Encode for a range that is negative or reversed.
	ErrInvalidRange = errors.New("address: invalid line range")
)

// Range is a zero-based, end-inclusive span of lines within one file.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Line returns the single-line range [i, i].
func Line(i int) Range { return Range{Start: i, End: i} }

// Valid reports whether 0 <= Start <= End.
func (r Range) Valid() bool { return r.Start >= 0 && r.Start <= r.End }

// Contains reports whether line i falls inside the range.
func (r Range) Contains(i int) bool { return i >= r.Start && i <= r.End }

// Extend grows the range to include line i. It never shrinks.
func (r Range) Extend(i int) Range {
	return Range{Start: min(r.Start, i), End: max(r.End, i)}
}

// Clamp limits the range to the first n lines. The second result is false
// when no line of the range survives.
func (r Range) Clamp(n int) (Range, bool) {
	if !r.Valid() || r.Start >= n {
		return Range{}, false
	}
	return Range{Start: r.Start, End: min(r.End, n-1)}, true
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d]", r.Start, r.End)
}

// Spec maps a zero-based file index to its selected range. A file has at
// most one range; assigning again replaces it.
type Spec map[int]Range

// Empty reports whether the spec selects nothing.
func (s Spec) Empty() bool { return len(s) == 0 }

// Files returns the file indices in ascending order.
func (s Spec) Files() []int {
	files := make([]int, 0, len(s))
	for f := range s {
		files = append(files, f)
	}
	sort.Ints(files)
	return files
}

// Clone returns an independent copy.
func (s Spec) Clone() Spec {
	out := make(Spec, len(s))
	for f, r := range s {
		out[f] = r
	}
	return out
}

// Equal reports whether both specs select the same ranges.
func (s Spec) Equal(o Spec) bool {
	if len(s) != len(o) {
		return false
	}
	for f, r := range s {
		if or, ok := o[f]; !ok || or != r {
			return false
		}
	}
	return true
}

// Token is one "<file>L<start>[-L<end>]" match with its numbers as written
// (1-based). End equals Start for the short single-line form.
type Token struct {
	File  int
	Start int
	End   int
}

// Tokenize scans text for every non-overlapping "<digits>L<digits>" match,
// optionally followed by "-L<digits>", and ignores everything else. Commas
// are not required between tokens. Numbers too large for an int drop the
// whole match.
func Tokenize(text string) []Token {
	var tokens []Token
	i := 0
	for i < len(text) {
		if !isDigit(text[i]) {
			i++
			continue
		}
		tok, next, ok := scanToken(text, i)
		if !ok {
			// No match can start anywhere inside this digit run.
			i = next
			continue
		}
		tokens = append(tokens, tok)
		i = next
	}
	return tokens
}

// scanToken tries to match a token whose file number starts at text[i].
// On failure next is the end of the leading digit run.
func scanToken(text string, i int) (tok Token, next int, ok bool) {
	fileEnd := scanDigits(text, i)
	if fileEnd >= len(text) || text[fileEnd] != 'L' {
		return Token{}, fileEnd, false
	}
	startEnd := scanDigits(text, fileEnd+1)
	if startEnd == fileEnd+1 {
		return Token{}, fileEnd, false
	}
	next = startEnd

	file, err1 := strconv.Atoi(text[i:fileEnd])
	start, err2 := strconv.Atoi(text[fileEnd+1 : startEnd])
	end := start
	overflow := err1 != nil || err2 != nil

	if startEnd+2 < len(text) && text[startEnd] == '-' && text[startEnd+1] == 'L' && isDigit(text[startEnd+2]) {
		endEnd := scanDigits(text, startEnd+2)
		n, err := strconv.Atoi(text[startEnd+2 : endEnd])
		if err != nil {
			overflow = true
		}
		end = n
		next = endEnd
	}
	if overflow {
		// The text is consumed as a match but carries no usable selection.
		return Token{}, next, false
	}
	return Token{File: file, Start: start, End: end}, next, true
}

func scanDigits(text string, i int) int {
	for i < len(text) && isDigit(text[i]) {
		i++
	}
	return i
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Decode turns fragment text into a Spec. It never fails: unmatched text is
// ignored and a later token for the same file replaces an earlier one.
// Tokens numbering a file or line 0 have no zero-based index and are skipped.
func Decode(text string) Spec {
	spec := Spec{}
	for _, tok := range Tokenize(text) {
		if tok.File < 1 || tok.Start < 1 || tok.End < 1 {
			continue
		}
		r := Range{Start: tok.Start - 1, End: tok.End - 1}
		if r.Start > r.End {
			r.Start, r.End = r.End, r.Start
		}
		spec[tok.File-1] = r
	}
	return spec
}

// Encode renders spec as fragment text in ascending file order, always in
// the long "<file>L<start>-L<end>" form. The spec must not be empty.
func Encode(spec Spec) (string, error) {
	if spec.Empty() {
		return "", ErrEmptySpec
	}
	parts := make([]string, 0, len(spec))
	for _, f := range spec.Files() {
		r := spec[f]
		if f < 0 || !r.Valid() {
			return "", fmt.Errorf("%w: file %d %s", ErrInvalidRange, f, r)
		}
		parts = append(parts, fmt.Sprintf("%dL%d-L%d", f+1, r.Start+1, r.End+1))
	}
	return strings.Join(parts, ","), nil
}
