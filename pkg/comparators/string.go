package comparators

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/Ramsey-B/fern/pkg/models"
)

// stringPair unwraps two values for a string metric. Either side missing
// means the metric cannot say anything about the pair.
func stringPair(a, b models.FieldValue) (string, string, bool) {
	if a.IsMissing() || b.IsMissing() {
		return "", "", false
	}
	return a.AsString(), b.AsString(), true
}

type exactComparator struct{}

func (exactComparator) Compare(a, b models.FieldValue) float64 {
	sa, sb, ok := stringPair(a, b)
	if !ok {
		return models.MissingScore
	}
	if sa == sb {
		return 1.0
	}
	return 0.0
}

// truncateComparator matches on the first maxLen runes only, for fields
// where trailing content is unreliable (e.g. truncated legacy exports)
type truncateComparator struct {
	maxLen int
}

func (c truncateComparator) Compare(a, b models.FieldValue) float64 {
	sa, sb, ok := stringPair(a, b)
	if !ok {
		return models.MissingScore
	}
	if truncate(sa, c.maxLen) == truncate(sb, c.maxLen) {
		return 1.0
	}
	return 0.0
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

type levenshteinComparator struct{}

func (levenshteinComparator) Compare(a, b models.FieldValue) float64 {
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
	dist := levenshtein.ComputeDistance(sa, sb)
	maxLen := len([]rune(sa))
	if lb := len([]rune(sb)); lb > maxLen {
		maxLen = lb
	}
	return 1.0 - float64(dist)/float64(maxLen)
}

// qgramComparator scores overlap between the two strings' q-gram multisets.
// Dice divides common grams by the average count, Jaccard by the union.
type qgramComparator struct {
	q       int
	jaccard bool
}

func (c qgramComparator) Compare(a, b models.FieldValue) float64 {
	sa, sb, ok := stringPair(a, b)
	if !ok {
		return models.MissingScore
	}
	if sa == sb {
		return 1.0
	}
	ga := qgrams(sa, c.q)
	gb := qgrams(sb, c.q)
	if len(ga) == 0 || len(gb) == 0 {
		return 0.0
	}
	counts := make(map[string]int, len(ga))
	for _, g := range ga {
		counts[g]++
	}
	common := 0
	for _, g := range gb {
		if counts[g] > 0 {
			counts[g]--
			common++
		}
	}
	if c.jaccard {
		return float64(common) / float64(len(ga)+len(gb)-common)
	}
	return float64(common) / (float64(len(ga)+len(gb)) / 2.0)
}

func qgrams(s string, q int) []string {
	r := []rune(s)
	if len(r) < q {
		if len(r) == 0 {
			return nil
		}
		return []string{string(r)}
	}
	grams := make([]string, 0, len(r)-q+1)
	for i := 0; i+q <= len(r); i++ {
		grams = append(grams, string(r[i:i+q]))
	}
	return grams
}

// bagComparator uses the bag distance, a cheap lower bound on edit distance:
// the larger one-sided multiset difference between the two character bags
type bagComparator struct{}

func (bagComparator) Compare(a, b models.FieldValue) float64 {
	sa, sb, ok := stringPair(a, b)
	if !ok {
		return models.MissingScore
	}
	if sa == sb {
		return 1.0
	}
	ra, rb := []rune(sa), []rune(sb)
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}
	bag := make(map[rune]int)
	for _, r := range ra {
		bag[r]++
	}
	for _, r := range rb {
		bag[r]--
	}
	surplusA, surplusB := 0, 0
	for _, n := range bag {
		if n > 0 {
			surplusA += n
		} else {
			surplusB -= n
		}
	}
	dist := surplusA
	if surplusB > dist {
		dist = surplusB
	}
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	return 1.0 - float64(dist)/float64(maxLen)
}

type jaroComparator struct{}

func (jaroComparator) Compare(a, b models.FieldValue) float64 {
	sa, sb, ok := stringPair(a, b)
	if !ok {
		return models.MissingScore
	}
	return jaro(sa, sb)
}

type winklerComparator struct{}

func (winklerComparator) Compare(a, b models.FieldValue) float64 {
	sa, sb, ok := stringPair(a, b)
	if !ok {
		return models.MissingScore
	}
	return winkler(sa, sb)
}

// sortedWinklerComparator sorts whitespace-separated words before scoring,
// so swapped given/family names still agree
type sortedWinklerComparator struct{}

func (sortedWinklerComparator) Compare(a, b models.FieldValue) float64 {
	sa, sb, ok := stringPair(a, b)
	if !ok {
		return models.MissingScore
	}
	return winkler(sortWords(sa), sortWords(sb))
}

// permWinklerComparator takes the best Winkler score over word permutations
// of the first value. Word counts above permCap fall back to sorted words to
// keep the search bounded.
type permWinklerComparator struct{}

const permCap = 6

func (permWinklerComparator) Compare(a, b models.FieldValue) float64 {
	sa, sb, ok := stringPair(a, b)
	if !ok {
		return models.MissingScore
	}
	if sa == sb {
		return 1.0
	}
	// permute the lexicographically smaller side so the score is symmetric
	if sb < sa {
		sa, sb = sb, sa
	}
	words := strings.Fields(sa)
	if len(words) < 2 || len(words) > permCap {
		return winkler(sortWords(sa), sortWords(sb))
	}
	best := 0.0
	permute(words, 0, func(perm []string) {
		if w := winkler(strings.Join(perm, " "), sb); w > best {
			best = w
		}
	})
	return best
}

func sortWords(s string) string {
	words := strings.Fields(s)
	sort.Strings(words)
	return strings.Join(words, " ")
}

func permute(words []string, i int, visit func([]string)) {
	if i == len(words)-1 {
		visit(words)
		return
	}
	for j := i; j < len(words); j++ {
		words[i], words[j] = words[j], words[i]
		permute(words, i+1, visit)
		words[i], words[j] = words[j], words[i]
	}
}

func jaro(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	matchDist := max(len(a), len(b))/2 - 1
	if matchDist < 0 {
		matchDist = 0
	}

	aMatches := make([]bool, len(a))
	bMatches := make([]bool, len(b))

	matches := 0
	for i := 0; i < len(a); i++ {
		start := max(0, i-matchDist)
		end := min(len(b), i+matchDist+1)
		for j := start; j < end; j++ {
			if bMatches[j] || a[i] != b[j] {
				continue
			}
			aMatches[i] = true
			bMatches[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0.0
	}

	transpositions := 0
	k := 0
	for i := 0; i < len(a); i++ {
		if !aMatches[i] {
			continue
		}
		for !bMatches[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	t := float64(transpositions) / 2
	return (m/float64(len(a)) + m/float64(len(b)) + (m-t)/m) / 3
}

func winkler(a, b string) float64 {
	w := jaro(a, b)
	if w == 0.0 || w == 1.0 {
		return w
	}

	prefixLen := 0
	maxPrefix := 4
	for i := 0; i < len(a) && i < len(b) && i < maxPrefix; i++ {
		if a[i] != b[i] {
			break
		}
		prefixLen++
	}
	return w + float64(prefixLen)*0.1*(1.0-w)
}
