package runner

// Assignment is one worker's contiguous share of the total work.
type Assignment struct {
	Worker int
	Units  int
}

// SplitWork partitions total units across workers as evenly as possible: the
// first total%workers workers receive one extra unit. Assignments always sum
// to total and differ pairwise by at most one. Zero-unit assignments are
// omitted so they are never spawned.
func SplitWork(total, workers int) []Assignment {
	if total < 1 || workers < 1 {
		return nil
	}

	base := total / workers
	remainder := total % workers

	assignments := make([]Assignment, 0, workers)
	for i := 0; i < workers; i++ {
		units := base
		if i < remainder {
			units++
		}
		if units == 0 {
			continue
		}
		assignments = append(assignments, Assignment{Worker: i, Units: units})
	}
	return assignments
}
