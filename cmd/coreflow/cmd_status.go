package main

import (
	"fmt"

	"github.com/coreflow/coreflow/element"
	"github.com/coreflow/coreflow/graph"
	"github.com/fatih/color"
	"github.com/pkg/errors"
)

var (
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

type cmdStatus struct {
	SinkParallelism uint16 `long:"sink-parallelism" default:"3" description:"Parallelism of the hash-partitioned sink operator"`
}

// singleWorkerPlacer places every task on the same worker. graph.Build
// still applies its locality rule, so with more than one sink task the
// hash-partitioned edges of the sample graph print as Network; a real
// coordinator plugs in a Placer backed by its resourcemanager
// allocation.
type singleWorkerPlacer struct{ worker string }

func (p singleWorkerPlacer) Place(element.TaskID, string) string { return p.worker }

func (cmd cmdStatus) Execute(_ []string) error {
	lg := graph.LogicalGraph{
		Operators: []graph.LogicalOperator{
			{Name: "source", Parallelism: 1, IsSource: true, Enumerator: fixedSplits{n: 1}},
			{Name: "sink", Parallelism: cmd.SinkParallelism},
		},
		Edges: []graph.LogicalEdge{
			{From: 0, To: 1, Partitioner: element.HashByKey{}},
		},
	}

	cd, err := graph.Build("coreflow-status", lg, singleWorkerPlacer{worker: "w0"})
	if err != nil {
		return errors.Wrap(err, "coreflow status: building cluster descriptor")
	}

	fmt.Printf("%s %s  %s %s\n", cyan("job:"), cd.JobID, cyan("run:"), cd.RunID)
	fmt.Println(yellow("tasks:"))
	for _, t := range cd.Tasks {
		fmt.Printf("  %s  operator=%d worker=%s split=%v\n", t.ID.String(), t.OperatorIndex, t.WorkerID, t.Split)
	}
	fmt.Println(yellow("edges:"))
	for _, e := range cd.Edges {
		fmt.Printf("  %s -> %s  [%s, %s]\n", e.Upstream.String(), e.Downstream.String(), e.Kind, e.Partitioner.Name())
	}
	return nil
}

// fixedSplits is a graph.SplitEnumerator producing n trivial splits,
// or minNumSplits of them when that is larger, for printing a
// representative descriptor without a real connector.
type fixedSplits struct{ n int }

func (f fixedSplits) CreateInputSplits(minNumSplits int) ([]element.InputSplit, error) {
	count := f.n
	if minNumSplits > count {
		count = minNumSplits
	}
	out := make([]element.InputSplit, count)
	for i := range out {
		out[i] = element.InputSplit{Index: i, CreateConnection: true}
	}
	return out, nil
}
