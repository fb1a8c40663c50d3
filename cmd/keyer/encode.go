package keyer

import (
	"errors"
	"fmt"

	"github.com/gigurra/cwkey/cmd/keyer/bitbuf"
)

var ErrInvalidCharacter = errors.New("invalid character")

// Unit costs. A character opens with charGap off units; every element opens
// with one more, so the gap before a character is 3 units. A space adds
// wordGap on top of that to reach the 7 unit word gap.
const (
	charGap     = 2
	elementGap  = 1
	dotUnits    = 1
	dashUnits   = 3
	wordGap     = 4
	trailSpaces = 3
)

// Encode writes text into buf, replacing its previous content, followed by
// three spaces of separation. On success the header holds the number of units
// written. On failure the header is zero.
func Encode(buf *bitbuf.Buffer, text string) error {
	buf.Begin()
	for i := 0; i < len(text); i++ {
		if err := encodeChar(buf, text[i]); err != nil {
			buf.Clear()
			return fmt.Errorf("encode %q at position %d: %w", text, i, err)
		}
	}
	for i := 0; i < trailSpaces; i++ {
		if err := encodeChar(buf, ' '); err != nil {
			buf.Clear()
			return fmt.Errorf("encode %q trailer: %w", text, err)
		}
	}
	buf.Commit()
	return nil
}

func encodeChar(buf *bitbuf.Buffer, c byte) error {
	if c == ' ' {
		return buf.AppendRun(false, wordGap)
	}

	code, ok := symbols(c)
	if !ok {
		return fmt.Errorf("%w %q", ErrInvalidCharacter, c)
	}
	if err := buf.AppendRun(false, charGap); err != nil {
		return err
	}
	for i := 0; i < len(code); i++ {
		if err := buf.AppendRun(false, elementGap); err != nil {
			return err
		}
		units := uint32(dotUnits)
		if code[i] == '-' {
			units = dashUnits
		}
		if err := buf.AppendRun(true, units); err != nil {
			return err
		}
	}
	return nil
}

// Units returns the number of units Encode would write for text, trailer
// included.
func Units(text string) (int, error) {
	total := trailSpaces * wordGap
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == ' ' {
			total += wordGap
			continue
		}
		code, ok := symbols(c)
		if !ok {
			return 0, fmt.Errorf("%w %q at position %d", ErrInvalidCharacter, c, i)
		}
		total += charGap
		for j := 0; j < len(code); j++ {
			total += elementGap
			if code[j] == '-' {
				total += dashUnits
			} else {
				total += dotUnits
			}
		}
	}
	return total, nil
}
