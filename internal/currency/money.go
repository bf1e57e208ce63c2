// Package currency implements the wizarding money system.
//
// Canon rates: 1 galleon = 17 sickles, 1 sickle = 29 knuts. All amounts are
// stored as integer knuts so arithmetic never rounds.
package currency

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	KnutsPerSickle    = int64(29)
	SicklesPerGalleon = int64(17)
	KnutsPerGalleon   = SicklesPerGalleon * KnutsPerSickle // 493
)

// Money is an immutable amount of wizarding currency in knuts.
// Negative amounts are valid and show up as withdrawals on receipts.
type Money struct {
	Knuts int64 `json:"knuts"`
}

func Zero() Money { return Money{} }

func FromKnuts(n int64) Money { return Money{Knuts: n} }

// FromGSK builds an amount from galleons, sickles and knuts.
func FromGSK(galleons, sickles, knuts int64) Money {
	return Money{Knuts: galleons*KnutsPerGalleon + sickles*KnutsPerSickle + knuts}
}

func (m Money) Add(other Money) Money { return Money{Knuts: m.Knuts + other.Knuts} }

func (m Money) Sub(other Money) Money { return Money{Knuts: m.Knuts - other.Knuts} }

func (m Money) Mul(n int64) Money { return Money{Knuts: m.Knuts * n} }

// Div floor-divides by an integer scalar. Panics on a zero divisor.
func (m Money) Div(n int64) Money {
	if n == 0 {
		panic("currency: division by zero")
	}
	return Money{Knuts: floorDiv(m.Knuts, n)}
}

// Mod returns the floored remainder of dividing by n. Panics on a zero divisor.
func (m Money) Mod(n int64) Money {
	if n == 0 {
		panic("currency: division by zero")
	}
	return Money{Knuts: floorMod(m.Knuts, n)}
}

func (m Money) Neg() Money { return Money{Knuts: -m.Knuts} }

func (m Money) Abs() Money {
	if m.Knuts < 0 {
		return Money{Knuts: -m.Knuts}
	}
	return m
}

func (m Money) IsZero() bool     { return m.Knuts == 0 }
func (m Money) IsNegative() bool { return m.Knuts < 0 }

func (m Money) Equal(other Money) bool       { return m.Knuts == other.Knuts }
func (m Money) LessThan(other Money) bool    { return m.Knuts < other.Knuts }
func (m Money) GreaterThan(other Money) bool { return m.Knuts > other.Knuts }

// ClampMin raises the amount to at least min knuts.
func (m Money) ClampMin(min int64) Money {
	if m.Knuts < min {
		return Money{Knuts: min}
	}
	return m
}

// GSK decomposes the amount into canonical galleon/sickle/knut counts using a
// floored divmod chain, so FromGSK(m.GSK()) always round-trips.
func (m Money) GSK() (galleons, sickles, knuts int64) {
	galleons = floorDiv(m.Knuts, KnutsPerGalleon)
	rem := floorMod(m.Knuts, KnutsPerGalleon)
	sickles = floorDiv(rem, KnutsPerSickle)
	knuts = floorMod(rem, KnutsPerSickle)
	return galleons, sickles, knuts
}

// Format renders the short form like "1g 2s 3k", omitting zero denominations.
// A zero amount renders as "0k".
func (m Money) Format() string {
	g, s, k := m.GSK()
	var parts []string
	if g != 0 {
		parts = append(parts, fmt.Sprintf("%dg", g))
	}
	if s != 0 {
		parts = append(parts, fmt.Sprintf("%ds", s))
	}
	if k != 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%dk", k))
	}
	return strings.Join(parts, " ")
}

// FormatLong renders the long form like "1 galleon 2 sickles 3 knuts".
func (m Money) FormatLong() string {
	g, s, k := m.GSK()
	var parts []string
	if g != 0 {
		parts = append(parts, fmt.Sprintf("%d galleon%s", g, plural(g)))
	}
	if s != 0 {
		parts = append(parts, fmt.Sprintf("%d sickle%s", s, plural(s)))
	}
	if k != 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d knut%s", k, plural(k)))
	}
	return strings.Join(parts, " ")
}

func (m Money) String() string { return m.Format() }

func plural(n int64) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// Floored division and modulo: the quotient rounds toward negative infinity
// and the remainder takes the sign of the divisor. Go's operators truncate,
// which would break GSK decomposition of negative amounts.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	r := a % b
	if r != 0 && ((r < 0) != (b < 0)) {
		r += b
	}
	return r
}

// Amount is the structured result of parsing free-form money text.
// Bare holds numeric fragments that carried no unit tag (counted as knuts);
// Unparsed holds fragments that were not recognized at all.
type Amount struct {
	Money    Money
	Bare     []string
	Unparsed []string
}

var (
	tokenRE  = regexp.MustCompile(`([+-]?\d[\d,]*)\s*(g(?:al(?:leons?)?)?|s(?:ickles?)?|k(?:nuts?)?)\b`)
	numberRE = regexp.MustCompile(`[+-]?\d[\d,]*`)
)

// ParseAmount tokenizes free-form text like "3g 2s 10k", "2 galleons and 5
// sickles" or "1,000" into an Amount. Unit tags are case-insensitive; numbers
// may carry a sign and comma grouping. Bare numbers count as knuts. The parse
// never fails; empty or unrecognizable input yields zero.
func ParseAmount(text string) Amount {
	var out Amount
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return out
	}

	var galleons, sickles, knuts int64
	consumed := make([]bool, len(t))

	for _, loc := range tokenRE.FindAllStringSubmatchIndex(t, -1) {
		num := parseInt(t[loc[2]:loc[3]])
		unit := t[loc[4]]
		for i := loc[0]; i < loc[1]; i++ {
			consumed[i] = true
		}
		switch unit {
		case 'g':
			galleons += num
		case 's':
			sickles += num
		case 'k':
			knuts += num
		}
	}

	// Mask consumed spans, then sweep the remainder for bare numbers.
	leftover := make([]byte, len(t))
	for i := 0; i < len(t); i++ {
		if consumed[i] {
			leftover[i] = ' '
		} else {
			leftover[i] = t[i]
		}
	}
	rest := string(leftover)
	for _, loc := range numberRE.FindAllStringIndex(rest, -1) {
		frag := rest[loc[0]:loc[1]]
		knuts += parseInt(frag)
		out.Bare = append(out.Bare, frag)
		for i := loc[0]; i < loc[1]; i++ {
			leftover[i] = ' '
		}
	}

	for _, frag := range strings.Fields(string(leftover)) {
		if ignorableFragment(frag) {
			continue
		}
		out.Unparsed = append(out.Unparsed, frag)
	}

	out.Money = FromGSK(galleons, sickles, knuts)
	return out
}

// Parse is the lenient parser: malformed input degrades to partial or zero
// totals, matching how players actually type amounts.
func Parse(text string) Money {
	return ParseAmount(text).Money
}

// ParseStrict rejects input containing unrecognized fragments, and non-empty
// input in which no amount was found at all.
func ParseStrict(text string) (Money, error) {
	a := ParseAmount(text)
	if len(a.Unparsed) > 0 {
		return Zero(), fmt.Errorf("unrecognized amount fragment %q", a.Unparsed[0])
	}
	if strings.TrimSpace(text) != "" && a.Money.IsZero() && len(a.Bare) == 0 && !hasUnitToken(text) {
		return Zero(), fmt.Errorf("no amount found in %q", text)
	}
	return a.Money, nil
}

func hasUnitToken(text string) bool {
	return tokenRE.MatchString(strings.ToLower(text))
}

// Connector words and punctuation between denominations are noise, not errors.
func ignorableFragment(frag string) bool {
	if frag == "and" {
		return true
	}
	return strings.Trim(frag, ",&+.;") == ""
}

func parseInt(s string) int64 {
	n, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
