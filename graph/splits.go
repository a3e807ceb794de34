package graph

// assignSplits implements spec §4.4 step 2: enumerate splits at
// min_num_splits = parallelism, fail if the enumerator over-produced,
// and otherwise round-robin assign with clone-replication rounds when
// the enumerator under-produced, leaving any remaining task slots
// idle.
func assignSplits(op LogicalOperator, tasks []TaskInstance) error {
	numTasks := len(tasks)
	splits, err := op.Enumerator.CreateInputSplits(numTasks)
	if err != nil {
		return err
	}
	if len(splits) > numTasks {
		return ErrTooManySplits
	}
	if len(splits) == 0 {
		return nil // every task instance is an idle source (spec §4.4 tie-break).
	}

	for i := range tasks {
		srcIdx := i % len(splits)
		if i < len(splits) {
			s := splits[srcIdx]
			tasks[i].Split = &s
			continue
		}
		clone := splits[srcIdx].Clone(i)
		tasks[i].Split = &clone
	}
	return nil
}
