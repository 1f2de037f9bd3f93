package models

// Source identifies which collection a record belongs to
type Source string

const (
	SourceA    Source = "A"
	SourceB    Source = "B"
	SourceSelf Source = "self" // single-collection deduplication
)

// Record is one standardised input record. Records are read-only for the
// duration of a linkage run; the engine never mutates them.
type Record struct {
	ID     string                `json:"id"`
	Source Source                `json:"source"`
	Fields map[string]FieldValue `json:"fields"`
}

// Field returns the value for name, or the missing sentinel
func (r *Record) Field(name string) FieldValue {
	if v, ok := r.Fields[name]; ok {
		return v
	}
	return Missing
}

// RecordSet holds the immutable record table for one run. Lookup is by
// (source, id) so A and B collections may reuse identifiers.
type RecordSet struct {
	byKey map[recordKey]*Record
	a     []*Record
	b     []*Record
}

type recordKey struct {
	source Source
	id     string
}

// NewRecordSet indexes the given records. In dedup mode all records carry
// SourceSelf and populate only the A side.
func NewRecordSet(records []*Record) *RecordSet {
	rs := &RecordSet{byKey: make(map[recordKey]*Record, len(records))}
	for _, rec := range records {
		rs.byKey[recordKey{rec.Source, rec.ID}] = rec
		if rec.Source == SourceB {
			rs.b = append(rs.b, rec)
		} else {
			rs.a = append(rs.a, rec)
		}
	}
	return rs
}

// Get returns the record for (source, id), or nil
func (rs *RecordSet) Get(source Source, id string) *Record {
	return rs.byKey[recordKey{source, id}]
}

// GetA resolves a pair's A-side identifier in either linkage or dedup mode
func (rs *RecordSet) GetA(id string) *Record {
	if rec := rs.Get(SourceA, id); rec != nil {
		return rec
	}
	return rs.Get(SourceSelf, id)
}

// GetB resolves a pair's B-side identifier in either linkage or dedup mode
func (rs *RecordSet) GetB(id string) *Record {
	if rec := rs.Get(SourceB, id); rec != nil {
		return rec
	}
	return rs.Get(SourceSelf, id)
}

// CollectionA returns the A-side (or single-collection) records
func (rs *RecordSet) CollectionA() []*Record { return rs.a }

// CollectionB returns the B-side records; empty in dedup mode
func (rs *RecordSet) CollectionB() []*Record { return rs.b }

// Len returns the total record count
func (rs *RecordSet) Len() int { return len(rs.byKey) }

// Deduplication reports whether the set holds a single collection
func (rs *RecordSet) Deduplication() bool { return len(rs.b) == 0 }
