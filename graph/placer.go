package graph

import "github.com/coreflow/coreflow/element"

// SingleWorkerPlacer places every task on the same worker, the
// placement a local-mode cluster uses (resourcemanager/local).
type SingleWorkerPlacer struct{ WorkerID string }

func (p SingleWorkerPlacer) Place(element.TaskID, string) string { return p.WorkerID }

// RoundRobinPlacer spreads tasks evenly across a fixed set of workers,
// in the order each (operator, task number) is visited during Build.
type RoundRobinPlacer struct {
	Workers []string
	next    int
}

func (p *RoundRobinPlacer) Place(element.TaskID, string) string {
	w := p.Workers[p.next%len(p.Workers)]
	p.next++
	return w
}
