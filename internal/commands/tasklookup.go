package commands

import (
	"errors"
	"fmt"

	"fstodo/internal/repository"
)

// taskTarget is a task resolved from a reference against the current snapshot.
type taskTarget struct {
	List repository.List
	Task repository.Task

	// Rest holds the args after the reference.
	Rest []string
}

// lookupTask resolves a task reference in args, using listName when the
// reference carries no letter. All failures are user errors.
func lookupTask(lists []repository.List, listName string, args []string) (taskTarget, error) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return taskTarget{}, err
	}

	// --list flag and list letter cannot both be used
	if listName != "" && ref.HasLetter {
		return taskTarget{}, errors.New("cannot use both --list and list letter")
	}

	var list repository.List
	switch {
	case listName != "":
		list, err = ResolveList(lists, listName)
	case ref.HasLetter:
		list, err = ListByLetter(lists, ref.Letter)
	case len(lists) == 1:
		list = lists[0]
	default:
		err = fmt.Errorf("list letter required (e.g. a%d)", ref.TaskNum)
	}
	if err != nil {
		return taskTarget{}, err
	}

	task, err := TaskByNumber(list, ref.TaskNum)
	if err != nil {
		return taskTarget{}, err
	}
	return taskTarget{List: list, Task: task, Rest: args[ref.Consumed:]}, nil
}
