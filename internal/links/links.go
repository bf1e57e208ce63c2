// Package links maps proxied character display names to Discord user ids so
// webhook messages can credit the right wallet. Display names arrive full of
// fancy-font Unicode, emoji and decorations; Normalize folds them down to a
// stable lookup key.
package links

import (
	"errors"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"gringotts/internal/kvstore"
)

// ErrEmptyName is returned when a display name normalizes to nothing usable,
// for example a name made purely of emoji.
var ErrEmptyName = errors.New("character name normalizes to empty")

// Trailing bracketed decorations like "Name [Status]" or "Name (she/her)".
var trailingBracketsRE = regexp.MustCompile(`\s*[(\[{][^)\]}]*[)\]}]\s*$`)

// Separators that proxy users put between a name and its decoration.
var decorDelims = []string{"|", "—", " - ", "•", "·", "–"}

// Emoji and pictograph blocks stripped during normalization.
var emojiTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x2600, Hi: 0x26FF, Stride: 1}, // misc symbols
		{Lo: 0x2700, Hi: 0x27BF, Stride: 1}, // dingbats
		{Lo: 0x2B00, Hi: 0x2BFF, Stride: 1}, // arrows etc
	},
	R32: []unicode.Range32{
		{Lo: 0x1F1E6, Hi: 0x1F1FF, Stride: 1}, // flags
		{Lo: 0x1F300, Hi: 0x1F5FF, Stride: 1}, // symbols & pictographs
		{Lo: 0x1F600, Hi: 0x1F64F, Stride: 1}, // emoticons
		{Lo: 0x1F680, Hi: 0x1F6FF, Stride: 1}, // transport & map
		{Lo: 0x1F700, Hi: 0x1FAFF, Stride: 1},
	},
}

// stripMarks removes combining marks (accents and overlay decorations) by
// decomposing, dropping the marks, then recomposing.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var spacesRE = regexp.MustCompile(`\s+`)

func nfkcLower(s string) string {
	return strings.TrimSpace(strings.ToLower(norm.NFKC.String(s)))
}

// Normalize folds a display name to its canonical link key: NFKC-fold and
// lowercase, drop joiners/variation selectors, strip combining marks and
// emoji, drop trailing bracketed decorations, cut at the first separator,
// keep only letters/digits/space/apostrophe/hyphen, collapse whitespace.
// The result may be empty.
func Normalize(name string) string {
	s := nfkcLower(name)
	s = strings.NewReplacer("‍", "", "︎", "", "️", "").Replace(s)
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	s = strings.Map(func(r rune) rune {
		if unicode.Is(emojiTable, r) {
			return -1
		}
		return r
	}, s)

	for {
		next := trailingBracketsRE.ReplaceAllString(s, "")
		if next == s {
			break
		}
		s = next
	}

	for _, d := range decorDelims {
		if i := strings.Index(s, d); i >= 0 {
			s = s[:i]
		}
	}

	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'', r == '-':
			return r
		default:
			return ' '
		}
	}, s)
	return strings.TrimSpace(spacesRE.ReplaceAllString(s, " "))
}

// normalizeOrFail falls back to a softer fold so names that are mostly emoji
// still produce a key when any letters survive, and refuses otherwise.
func normalizeOrFail(name string) (string, error) {
	if key := Normalize(name); key != "" {
		return key, nil
	}
	soft := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'', r == '-':
			return r
		default:
			return ' '
		}
	}, nfkcLower(name))
	soft = strings.TrimSpace(spacesRE.ReplaceAllString(soft, " "))
	if soft == "" {
		return "", ErrEmptyName
	}
	return soft, nil
}

// variants lists the candidate keys tried when resolving or unlinking.
func variants(name string) []string {
	a := nfkcLower(name)
	b := Normalize(name)
	if a == b {
		return []string{a}
	}
	return []string{a, b}
}

// Table is the persistent name → owner id mapping. Many names may point at
// the same owner; re-linking a name overwrites its previous owner.
type Table struct {
	store *kvstore.Store[int64]
	log   *slog.Logger
}

func New(path string, logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	return &Table{store: kvstore.New[int64](path, logger), log: logger}
}

// Link binds a display name (normalized) to an owner. Also used for aliases:
// linking another spelling of the same character to the same owner.
func (t *Table) Link(name string, ownerID int64) error {
	key, err := normalizeOrFail(name)
	if err != nil {
		return err
	}
	err = t.store.Update(func(data map[string]int64) (bool, error) {
		data[key] = ownerID
		return true, nil
	})
	if err != nil {
		return err
	}
	t.log.Info("character linked", "key", key, "owner", ownerID)
	return nil
}

// Unlink removes every stored variant of the name. Reports whether any
// existed.
func (t *Table) Unlink(name string) (bool, error) {
	existed := false
	err := t.store.Update(func(data map[string]int64) (bool, error) {
		for _, key := range variants(name) {
			if _, ok := data[key]; ok {
				delete(data, key)
				existed = true
			}
		}
		return existed, nil
	})
	if err != nil {
		return false, err
	}
	return existed, nil
}

// Resolve looks up the owner for a display name, trying the strict key first
// and the softly-folded variant second.
func (t *Table) Resolve(name string) (int64, bool) {
	var ownerID int64
	found := false
	t.store.View(func(data map[string]int64) {
		for _, key := range []string{Normalize(name), nfkcLower(name)} {
			if key == "" {
				continue
			}
			if id, ok := data[key]; ok {
				ownerID, found = id, true
				return
			}
		}
	})
	return ownerID, found
}

// All returns a copy of every link.
func (t *Table) All() map[string]int64 {
	out := make(map[string]int64)
	t.store.View(func(data map[string]int64) {
		for k, v := range data {
			out[k] = v
		}
	})
	return out
}

// OwnedBy lists the normalized character names linked to one owner.
func (t *Table) OwnedBy(ownerID int64) []string {
	var names []string
	t.store.View(func(data map[string]int64) {
		for name, id := range data {
			if id == ownerID {
				names = append(names, name)
			}
		}
	})
	sort.Strings(names)
	return names
}
