package models

import (
	"fmt"
	"strconv"
	"time"
)

// FieldKind tags the variant held by a FieldValue
type FieldKind string

const (
	FieldKindString  FieldKind = "string"
	FieldKindNumber  FieldKind = "number"
	FieldKindDate    FieldKind = "date"
	FieldKindMissing FieldKind = "missing"
)

// FieldValue is a tagged variant for a single record attribute. The kind is
// decided at standardisation time; comparators dispatch on it and never
// coerce between kinds.
type FieldValue struct {
	Kind FieldKind `json:"kind"`
	Str  string    `json:"str,omitempty"`
	Num  float64   `json:"num,omitempty"`
	Date time.Time `json:"date,omitempty"`
}

// Missing is the shared sentinel for an absent field value
var Missing = FieldValue{Kind: FieldKindMissing}

func StringValue(s string) FieldValue {
	return FieldValue{Kind: FieldKindString, Str: s}
}

func NumberValue(n float64) FieldValue {
	return FieldValue{Kind: FieldKindNumber, Num: n}
}

func DateValue(t time.Time) FieldValue {
	return FieldValue{Kind: FieldKindDate, Date: t}
}

// IsMissing reports whether the value is the missing sentinel
func (v FieldValue) IsMissing() bool {
	return v.Kind == FieldKindMissing
}

// AsString renders the value for key construction. Missing values render as
// the empty string so key rules can exclude the record from the block.
func (v FieldValue) AsString() string {
	switch v.Kind {
	case FieldKindString:
		return v.Str
	case FieldKindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case FieldKindDate:
		return v.Date.Format("2006-01-02")
	default:
		return ""
	}
}

func (v FieldValue) String() string {
	if v.IsMissing() {
		return "<missing>"
	}
	return fmt.Sprintf("%s(%s)", v.Kind, v.AsString())
}
