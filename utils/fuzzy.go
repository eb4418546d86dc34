package utils

// Fuzzy matching of names typed on a command line (or into an overrides file) against a table of known names.

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"
)

var ErrNoMatch = errors.New("no match")
var ErrAmbiguous = errors.New("ambiguous")

// squash upper-cases a name and turns anything that's awkward to type (spaces, punctuation...) into '_',
// so "Stash Gold", "stash_gold" and "STASH-GOLD" all come out the same.
func squash(in string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, in)
}

type fuzzy_name[K comparable] struct {
	key      K
	name     string
	squashed string
}

// Each tier is tried in turn and the first one with any matches decides.  Later tiers are more desperate.
var fuzzy_tiers = []func(typed, squashed string, name, name_squashed string) bool{
	func(typed, _, name, _ string) bool { return typed == name },
	func(typed, _, name, _ string) bool { return strings.EqualFold(typed, name) },
	func(_, squashed, _, name_squashed string) bool { return squashed == name_squashed },
	func(_, squashed, _, name_squashed string) bool { return strings.HasPrefix(name_squashed, squashed) },
	func(_, squashed, _, name_squashed string) bool { return strings.Contains(name_squashed, squashed) },
}

// Fuzzy_reverse_lookup finds the key whose name in trans best matches what a human typed.
//
// what says what sort of thing is being looked up ("attribute", "class"), for error messages.
// Returns the key and its proper name, which need not be what was typed.
// Errors are ErrNoMatch or ErrAmbiguous.
func Fuzzy_reverse_lookup[K comparable](trans map[K]string, typed string, what string) (K, string, error) {
	var none K

	if strings.TrimSpace(typed) == "" {
		return none, "", fmt.Errorf("%w: empty %v", ErrNoMatch, what)
	}

	candidates := make([]fuzzy_name[K], 0, len(trans))
	for k, name := range trans {
		candidates = append(candidates, fuzzy_name[K]{k, name, squash(name)})
	}
	squashed := squash(typed)

	for _, tier := range fuzzy_tiers {
		var hits []fuzzy_name[K]
		for _, c := range candidates {
			if tier(typed, squashed, c.name, c.squashed) {
				hits = append(hits, c)
			}
		}

		switch len(hits) {
		case 0:
			continue
		case 1:
			return hits[0].key, hits[0].name, nil
		default:
			names := make([]string, len(hits))
			for i, h := range hits {
				names[i] = h.name
			}
			slices.Sort(names)
			return none, "", fmt.Errorf("%w: %v could be any of %v", ErrAmbiguous, typed, strings.Join(names, ", "))
		}
	}

	return none, "", fmt.Errorf("%w: %v is not a known %v", ErrNoMatch, typed, what)
}
