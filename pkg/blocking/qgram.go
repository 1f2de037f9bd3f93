package blocking

import (
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
)

const (
	// padding characters sit outside any printable field alphabet
	qgramStartChar = "\x01"
	qgramEndChar   = "\x02"

	// separator between grams inside one derived key
	qgramKeySep = "\x1f"

	defaultMaxEditDist = 2

	// bounds the combinatorial growth of sub-list keys per value
	maxQGramDeletions = 4
)

// qgramKeys decomposes a value into overlapping q-grams and derives one
// index key per ordered sub-list of length minCommon. Two values within the
// configured edit distance share at least minCommon q-grams, so they derive
// at least one common key and land in a common block.
func qgramKeys(value string, rule models.BlockingRule) []string {
	q := rule.QGramLen
	maxDist := rule.MaxEditDist
	if maxDist < 1 {
		maxDist = defaultMaxEditDist
	}

	valueLen := len([]rune(value))
	padded := value
	if rule.Padded && q > 1 {
		padded = strings.Repeat(qgramStartChar, q-1) + value + strings.Repeat(qgramEndChar, q-1)
	}

	grams := valueGrams(padded, q)
	if len(grams) == 0 {
		return nil
	}

	// count filtering bound from Gravano et al.
	minCommon := valueLen - 1 - (maxDist-1)*q
	if minCommon < 1 {
		minCommon = 1
	}
	if minCommon > len(grams) {
		minCommon = len(grams)
	}
	if len(grams)-minCommon > maxQGramDeletions {
		minCommon = len(grams) - maxQGramDeletions
	}

	// index every sub-list length from minCommon up to the full list, so
	// values of different lengths still meet at their overlap length
	seen := make(map[string]struct{})
	var keys []string
	for length := minCommon; length <= len(grams); length++ {
		subLists(grams, length, func(sub []string) {
			key := strings.Join(sub, qgramKeySep)
			if _, ok := seen[key]; ok {
				return
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		})
	}
	return keys
}

func valueGrams(s string, q int) []string {
	r := []rune(s)
	if len(r) == 0 {
		return nil
	}
	if len(r) < q {
		return []string{string(r)}
	}
	grams := make([]string, 0, len(r)-q+1)
	for i := 0; i+q <= len(r); i++ {
		grams = append(grams, string(r[i:i+q]))
	}
	return grams
}

// subLists visits every ordered sub-list of the given length
func subLists(grams []string, length int, visit func([]string)) {
	sub := make([]string, 0, length)
	var recurse func(start int)
	recurse = func(start int) {
		if len(sub) == length {
			visit(sub)
			return
		}
		// stop when the remaining grams cannot fill the sub-list
		for i := start; i <= len(grams)-(length-len(sub)); i++ {
			sub = append(sub, grams[i])
			recurse(i + 1)
			sub = sub[:len(sub)-1]
		}
	}
	recurse(0)
}
