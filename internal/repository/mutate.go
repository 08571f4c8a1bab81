package repository

import "sort"

// Mutation computes a new task sequence from the current one. Mutations
// never modify their input.
type Mutation func(tasks []Task) []Task

// AppendTask adds t at the end of the sequence.
func AppendTask(t Task) Mutation {
	return func(tasks []Task) []Task {
		out := make([]Task, 0, len(tasks)+1)
		out = append(out, tasks...)
		return append(out, t)
	}
}

// ToggleDone flips the done flag of the task with id taskID.
func ToggleDone(taskID string) Mutation {
	return mapTask(taskID, func(t Task) Task {
		t.Done = !t.Done
		return t
	})
}

// RenameTask sets the name of the task with id taskID.
func RenameTask(taskID, name string) Mutation {
	return mapTask(taskID, func(t Task) Task {
		t.Name = name
		return t
	})
}

// RemoveTask drops the task with id taskID.
func RemoveTask(taskID string) Mutation {
	return func(tasks []Task) []Task {
		out := make([]Task, 0, len(tasks))
		for _, t := range tasks {
			if t.ID != taskID {
				out = append(out, t)
			}
		}
		return out
	}
}

func mapTask(taskID string, fn func(Task) Task) Mutation {
	return func(tasks []Task) []Task {
		out := make([]Task, len(tasks))
		for i, t := range tasks {
			if t.ID == taskID {
				t = fn(t)
			}
			out[i] = t
		}
		return out
	}
}

// DisplayOrder returns tasks with open tasks first and done tasks after,
// keeping insertion order within each group. Persisted order is unaffected.
func DisplayOrder(tasks []Task) []Task {
	out := append([]Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		return !out[i].Done && out[j].Done
	})
	return out
}
