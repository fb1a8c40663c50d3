package keyer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

const (
	firstChar = '0'
	lastChar  = 'Z'
)

var ErrInvalidNotation = errors.New("invalid morse notation")

// letters is indexed by c - '0'. Entries between '9' and 'A' are empty.
var letters = [lastChar - firstChar + 1]string{
	"-----", // 0
	".----", // 1
	"..---", // 2
	"...--", // 3
	"....-", // 4
	".....", // 5
	"-....", // 6
	"--...", // 7
	"---..", // 8
	"----.", // 9
	"",      // :
	"",      // ;
	"",      // <
	"",      // =
	"",      // >
	"",      // ?
	"",      // @
	".-",    // A
	"-...",  // B
	"-.-.",  // C
	"-..",   // D
	".",     // E
	"..-.",  // F
	"--.",   // G
	"....",  // H
	"..",    // I
	".---",  // J
	"-.-",   // K
	".-..",  // L
	"--",    // M
	"-.",    // N
	"---",   // O
	".--.",  // P
	"--.-",  // Q
	".-.",   // R
	"...",   // S
	"-",     // T
	"..-",   // U
	"...-",  // V
	".--",   // W
	"-..-",  // X
	"-.--",  // Y
	"--..",  // Z
}

var fromMorse map[string]byte

func init() {
	fromMorse = make(map[string]byte)
	for i, code := range letters {
		if code != "" {
			fromMorse[code] = byte(firstChar + i)
		}
	}
}

// upper maps ASCII a-z to A-Z and leaves every other byte alone.
func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

// symbols returns the table entry for any byte in '0'..'Z'. The gap entries
// between '9' and 'A' are empty, so they key only the character gap.
func symbols(c byte) (string, bool) {
	c = upper(c)
	if c < firstChar || c > lastChar {
		return "", false
	}
	return letters[c-firstChar], true
}

// Lookup returns the dot/dash symbols for c. Only 0-9 and A-Z (either case)
// are found.
func Lookup(c byte) (string, bool) {
	code, ok := symbols(c)
	return code, ok && code != ""
}

// Notation renders text as dot/dash notation: letters separated by a space,
// words by " / ".
func Notation(text string) (string, error) {
	words := strings.Fields(text)
	encoded := make([]string, 0, len(words))
	for _, word := range words {
		codes := make([]string, 0, len(word))
		for i := 0; i < len(word); i++ {
			code, ok := Lookup(word[i])
			if !ok {
				return "", fmt.Errorf("%w %q", ErrInvalidCharacter, word[i])
			}
			codes = append(codes, code)
		}
		encoded = append(encoded, strings.Join(codes, " "))
	}
	return strings.Join(encoded, " / "), nil
}

// Decode converts dot/dash notation produced by Notation back to text.
func Decode(notation string) (string, error) {
	words := lo.Filter(strings.Split(notation, "/"), func(w string, _ int) bool {
		return strings.TrimSpace(w) != ""
	})

	var result strings.Builder
	for i, word := range words {
		if i > 0 {
			result.WriteByte(' ')
		}
		for _, code := range strings.Fields(word) {
			c, ok := fromMorse[code]
			if !ok {
				return "", fmt.Errorf("%w: %q", ErrInvalidNotation, code)
			}
			result.WriteByte(c)
		}
	}
	return result.String(), nil
}
