package recurrence

import (
	"fmt"
	"strconv"

	"github.com/samber/mo"
	"github.com/teambition/rrule-go"
)

// TokenForm is the grammar a byweekday token is written in.
type TokenForm int

const (
	// FormBare is a plain weekday code such as "MO".
	FormBare TokenForm = iota + 1
	// FormOrdinal is a weekday code with a signed position such as "1MO" or "-1FR".
	FormOrdinal
)

func (f TokenForm) String() string {
	switch f {
	case FormBare:
		return "bare"
	case FormOrdinal:
		return "ordinal"
	default:
		return "invalid"
	}
}

// MaxOrdinal bounds the magnitude of a token's position.
const MaxOrdinal = 5

// WeekdayOccurrence is a decoded byweekday token. An absent ordinal means every
// matching weekday of the period.
type WeekdayOccurrence struct {
	Weekday Weekday
	Ordinal mo.Option[int]
}

// Token encodes the occurrence back into its canonical token.
func (w WeekdayOccurrence) Token() string {
	token, err := Encode(w.Weekday, w.Ordinal)
	if err != nil {
		return ""
	}
	return token
}

func (w WeekdayOccurrence) rrule() rrule.Weekday {
	wd := w.Weekday.rrule()
	if n, ok := w.Ordinal.Get(); ok {
		return wd.Nth(n)
	}
	return wd
}

// Classify reports which grammar token is written in.
func Classify(token string) (TokenForm, error) {
	form, _, _, err := parseToken(token)
	return form, err
}

// Decode splits token into its weekday and optional ordinal.
func Decode(token string) (Weekday, mo.Option[int], error) {
	_, day, ordinal, err := parseToken(token)
	return day, ordinal, err
}

// DecodeAll decodes a token list, stopping at the first malformed token.
func DecodeAll(tokens []string) ([]WeekdayOccurrence, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	out := make([]WeekdayOccurrence, 0, len(tokens))
	for _, token := range tokens {
		day, ordinal, err := Decode(token)
		if err != nil {
			return nil, err
		}
		out = append(out, WeekdayOccurrence{Weekday: day, Ordinal: ordinal})
	}
	return out, nil
}

// Encode produces the canonical token for a weekday and optional ordinal.
// Positive ordinals are written without a sign.
func Encode(day Weekday, ordinal mo.Option[int]) (string, error) {
	if !day.Valid() {
		return "", fmt.Errorf("%w: weekday %d", ErrInvalidToken, int(day))
	}
	n, ok := ordinal.Get()
	if !ok {
		return day.Code(), nil
	}
	if n == 0 || n > MaxOrdinal || n < -MaxOrdinal {
		return "", fmt.Errorf("%w: ordinal %d", ErrInvalidToken, n)
	}
	return strconv.Itoa(n) + day.Code(), nil
}

func parseToken(token string) (TokenForm, Weekday, mo.Option[int], error) {
	none := mo.None[int]()
	fail := func() (TokenForm, Weekday, mo.Option[int], error) {
		return 0, 0, none, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	if len(token) < 2 || len(token) > 4 {
		return fail()
	}

	day, ok := lookupCode(token[len(token)-2:])
	if !ok {
		return fail()
	}
	prefix := token[:len(token)-2]
	if prefix == "" {
		return FormBare, day, none, nil
	}

	sign := 1
	switch prefix[0] {
	case '+':
		prefix = prefix[1:]
	case '-':
		sign = -1
		prefix = prefix[1:]
	}
	if len(prefix) != 1 || prefix[0] < '1' || prefix[0] > '0'+MaxOrdinal {
		return fail()
	}
	return FormOrdinal, day, mo.Some(sign * int(prefix[0]-'0')), nil
}

func lookupCode(code string) (Weekday, bool) {
	for i, c := range weekdayCodes {
		if c == code {
			return Weekday(i), true
		}
	}
	return 0, false
}
