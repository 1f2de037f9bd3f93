package blocking

import (
	"fmt"
	"sort"

	"github.com/Ramsey-B/fern/pkg/models"
)

// buildWindows implements sorted-neighbourhood blocking: records are sorted
// by their derived key and every run of WindowSize consecutive records forms
// one block. Overlapping windows produce repeated pairs; cross-block
// deduplication collapses them.
func buildWindows(rs *models.RecordSet, ruleIdx int, rule models.BlockingRule, add func(string, *models.Record)) {
	type entry struct {
		key string
		rec *models.Record
	}

	var entries []entry
	collect := func(recs []*models.Record) {
		for _, rec := range recs {
			key := keyValue(rule, rec)
			if key == "" {
				continue
			}
			entries = append(entries, entry{key: key, rec: rec})
		}
	}
	collect(rs.CollectionA())
	collect(rs.CollectionB())

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].key != entries[j].key {
			return entries[i].key < entries[j].key
		}
		if entries[i].rec.Source != entries[j].rec.Source {
			return entries[i].rec.Source < entries[j].rec.Source
		}
		return entries[i].rec.ID < entries[j].rec.ID
	})

	w := rule.WindowSize
	if len(entries) < 2 {
		return
	}
	if w > len(entries) {
		w = len(entries)
	}

	for start := 0; start+w <= len(entries); start++ {
		key := fmt.Sprintf("r%d:w%08d", ruleIdx, start)
		for _, e := range entries[start : start+w] {
			add(key, e.rec)
		}
	}
}
