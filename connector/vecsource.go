package connector

import (
	"context"
	"io"

	"github.com/coreflow/coreflow/element"
)

// VecSource is a finite in-memory InputFormat that emits a fixed slice
// of records, one split per task instance (ports rlink-rs's
// vec_input_format.rs). Used by the end-to-end scenarios of spec §8.
type VecSource struct {
	NopCheckpoint

	Records []element.Record
	pos     int
}

// NewVecSource returns a VecSource that enumerates exactly one split
// per parallel instance, each carrying the full record slice — the
// caller is expected to use parallelism 1 for deterministic-order
// scenarios (spec §8 scenario 1).
func NewVecSource(records []element.Record) *VecSource {
	return &VecSource{Records: records}
}

func (v *VecSource) CreateInputSplits(minNumSplits int) ([]element.InputSplit, error) {
	splits := make([]element.InputSplit, minNumSplits)
	for i := range splits {
		splits[i] = element.InputSplit{Index: i, CreateConnection: true}
	}
	return splits, nil
}

func (v *VecSource) Open(split element.InputSplit, ctx *Context) error {
	v.pos = 0
	return nil
}

func (v *VecSource) Next(ctx context.Context) (element.Element, error) {
	if v.pos >= len(v.Records) {
		return element.Element{}, io.EOF
	}
	r := v.Records[v.pos]
	v.pos++
	return element.NewRecord(r), nil
}

func (v *VecSource) Close() error { return nil }

func (v *VecSource) Schema(in Schema) Schema { return in }

func (v *VecSource) Parallelism() uint16 { return 1 }
