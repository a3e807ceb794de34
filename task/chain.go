package task

import (
	"github.com/coreflow/coreflow/connector"
	"github.com/coreflow/coreflow/element"
)

// stage is one "process one record" closure, erased to a plain
// function at task-open time so the hot loop makes one indirect call
// per operator rather than a virtual dispatch per element (spec §9
// "operator chain composition").
type stage func(r element.Record) ([]element.Record, error)

func buildChain(cctx *connector.Context, fns []connector.FlatMapFunction) []stage {
	stages := make([]stage, len(fns))
	for i, fn := range fns {
		fn := fn
		stages[i] = func(r element.Record) ([]element.Record, error) {
			return fn.FlatMap(cctx, r)
		}
	}
	return stages
}

// runChain threads r through every stage in order. A FlatMap stage may
// fan a single input record into zero, one, or many output records;
// each downstream stage runs once per record produced by the stage
// before it.
func runChain(stages []stage, r element.Record) ([]element.Record, error) {
	batch := []element.Record{r}
	for _, st := range stages {
		var next []element.Record
		for _, rec := range batch {
			out, err := st(rec)
			if err != nil {
				return nil, err
			}
			next = append(next, out...)
		}
		batch = next
		if len(batch) == 0 {
			break
		}
	}
	return batch, nil
}
