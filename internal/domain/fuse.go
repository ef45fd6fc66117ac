package domain

import (
	"fmt"
	"slices"
)

// Rejection explains why a series could not be fused.
type Rejection struct {
	Reason    string
	Offending TideSeries
}

// FusionResult is the outcome of Fuse. When Rejected is set, Series is the
// first operand unchanged and the caller decides whether to skip, log, or abort.
type FusionResult struct {
	Series   TideSeries
	Rejected *Rejection
}

// OK reports whether both operands were merged.
func (r FusionResult) OK() bool {
	return r.Rejected == nil
}

// Fuse merges two series into one sorted series. Records sharing a timestamp
// are all kept, with a's records ahead of b's. Series with different column
// schemas are not merged.
func Fuse(a, b TideSeries) FusionResult {
	if !slices.Equal(a.Columns, b.Columns) {
		return FusionResult{
			Series: a,
			Rejected: &Rejection{
				Reason:    fmt.Sprintf("column mismatch: %v vs %v", a.Columns, b.Columns),
				Offending: b,
			},
		}
	}

	records := make([]TideRecord, 0, len(a.Records)+len(b.Records))
	records = append(records, a.Records...)
	records = append(records, b.Records...)
	sortRecords(records)

	fused := TideSeries{
		Name:    a.Name,
		Station: a.Station,
		Columns: slices.Clone(a.Columns),
		Records: records,
		Sources: slices.Concat(a.Sources, b.Sources),
	}
	if fused.Name == "" {
		fused.Name = b.Name
	}
	if fused.Station.IsZero() {
		fused.Station = b.Station
	}
	return FusionResult{Series: fused}
}

// FuseAll folds the series left to right starting from EmptySeries.
// Rejected series are skipped and returned alongside the result.
func FuseAll(series ...TideSeries) (TideSeries, []Rejection) {
	acc := EmptySeries()
	var rejected []Rejection
	for _, s := range series {
		res := Fuse(acc, s)
		if !res.OK() {
			rejected = append(rejected, *res.Rejected)
		}
		acc = res.Series
	}
	return acc, rejected
}
