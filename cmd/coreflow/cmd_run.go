package main

import (
	"context"
	"fmt"
	"time"

	"github.com/coreflow/coreflow/channel"
	"github.com/coreflow/coreflow/connector"
	"github.com/coreflow/coreflow/element"
	"github.com/coreflow/coreflow/pubsub/memory"
	"github.com/coreflow/coreflow/task"
	"github.com/fatih/color"
	"github.com/pkg/errors"
)

var green = color.New(color.FgGreen).SprintFunc()

type cmdRun struct {
	Timeout time.Duration `long:"timeout" default:"5s" description:"Abort the run if it hasn't finished within this long"`
}

// identity is a FlatMapFunction that passes every record through
// unchanged, standing in for a real user operator.
type identity struct{}

func (identity) FlatMap(_ *connector.Context, r element.Record) ([]element.Record, error) {
	return []element.Record{r}, nil
}
func (identity) Name() string { return "identity" }

func (cmd cmdRun) Execute(_ []string) error {
	registry := memory.NewRegistry()

	srcID := element.TaskID{JobID: "coreflow-run", TaskNumber: 0, NumTasks: 1}
	sinkID := element.TaskID{JobID: "coreflow-run", TaskNumber: 0, NumTasks: 1}

	split := element.InputSplit{Index: 0, CreateConnection: true}
	source := connector.NewVecSource([]element.Record{
		{Key: []byte("a"), EventTime: time.Unix(0, 0)},
		{Key: []byte("b"), EventTime: time.Unix(1, 0)},
	})
	sink := connector.NewMemSink()

	srcTask := &task.Task{
		ID:        srcID,
		Split:     &split,
		Source:    source,
		Chain:     []connector.FlatMapFunction{identity{}},
		Publisher: registry,
		Outputs: []task.OutputEdge{
			{Partitioner: element.Forward{}, Downstreams: []element.TaskID{sinkID}},
		},
	}

	inputs := registry.Subscribe([]element.TaskID{srcID}, sinkID, 16, channel.Bounded)
	taskInputs := make([]task.Input, len(inputs))
	for i, in := range inputs {
		taskInputs[i] = task.Input{Upstream: in.Upstream, Receiver: in.Receiver}
	}
	sinkTask := &task.Task{ID: sinkID, Inputs: taskInputs, Sink: sink}

	if err := srcTask.Open(context.Background(), nil); err != nil {
		return errors.Wrap(err, "coreflow run: opening source task")
	}
	if err := sinkTask.Open(context.Background(), nil); err != nil {
		return errors.Wrap(err, "coreflow run: opening sink task")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sinkTask.Run(ctx) }()

	if err := srcTask.Run(ctx); err != nil {
		return errors.Wrap(err, "coreflow run: running source task")
	}
	if err := <-done; err != nil {
		return errors.Wrap(err, "coreflow run: running sink task")
	}

	if err := srcTask.Close(); err != nil {
		return errors.Wrap(err, "coreflow run: closing source task")
	}
	if err := sinkTask.Close(); err != nil {
		return errors.Wrap(err, "coreflow run: closing sink task")
	}

	for _, r := range sink.Records() {
		fmt.Printf("%s key=%s t=%s\n", green("record"), r.Key, r.EventTime.Format(time.RFC3339))
	}
	return nil
}
