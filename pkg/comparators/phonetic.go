package comparators

import (
	"fmt"

	"github.com/antzucaro/matchr"

	"github.com/Ramsey-B/fern/pkg/models"
)

// phoneticComparator encodes both values with a phonetic key and scores 1.0
// on equal encodings. Metaphone keys on the primary Double Metaphone
// encoding; double_metaphone agrees when any primary/secondary pair matches.
type phoneticComparator struct {
	encode func(a, b string) bool
}

func newPhoneticComparator(kind models.ComparatorType) (Comparator, error) {
	switch kind {
	case models.ComparatorSoundex:
		return phoneticComparator{encode: func(a, b string) bool {
			return matchr.Soundex(a) == matchr.Soundex(b)
		}}, nil
	case models.ComparatorMetaphone:
		return phoneticComparator{encode: func(a, b string) bool {
			pa, _ := matchr.DoubleMetaphone(a)
			pb, _ := matchr.DoubleMetaphone(b)
			return pa == pb
		}}, nil
	case models.ComparatorDblMetaphone:
		return phoneticComparator{encode: doubleMetaphoneEqual}, nil
	case models.ComparatorNYSIIS:
		return phoneticComparator{encode: func(a, b string) bool {
			return matchr.NYSIIS(a) == matchr.NYSIIS(b)
		}}, nil
	default:
		return nil, fmt.Errorf("unknown phonetic comparator %q", kind)
	}
}

func (c phoneticComparator) Compare(a, b models.FieldValue) float64 {
	sa, sb, ok := stringPair(a, b)
	if !ok {
		return models.MissingScore
	}
	if sa == sb {
		return 1.0
	}
	if sa == "" || sb == "" {
		return 0.0
	}
	if c.encode(sa, sb) {
		return 1.0
	}
	return 0.0
}

func doubleMetaphoneEqual(a, b string) bool {
	p1, s1 := matchr.DoubleMetaphone(a)
	p2, s2 := matchr.DoubleMetaphone(b)
	if p1 == p2 {
		return true
	}
	if s1 != "" && (s1 == p2 || s1 == s2) {
		return true
	}
	return s2 != "" && s2 == p1
}
