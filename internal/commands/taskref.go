package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"fstodo/internal/output"
	"fstodo/internal/repository"
)

// maxLists is the number of lists that can be addressed by letter.
const maxLists = 26

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Letter    rune // 0 if no letter, 'a'-'z' otherwise
	TaskNum   int  // 1-based task number in display order
	HasLetter bool // true if a list letter was provided
	Consumed  int  // number of args the reference used
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses task reference from args.
// Returns the parsed reference and any error.
//
// Parsing rules:
// 1. If first arg is all digits → numeric reference (needs --list)
// 2. If first arg is <letter><digits> (e.g., a1, b12) → combined reference
// 3. If first arg is single letter and second arg is all digits → separated reference (a 1)
// 4. If first arg is single letter with no second arg → error: task reference required
// 5. Otherwise → error: invalid task reference: <ref>
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}

	firstArg := args[0]

	// Case 1: All digits
	if isAllDigits(firstArg) {
		num, err := strconv.Atoi(firstArg)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", firstArg)
		}
		return TaskRef{TaskNum: num, Consumed: 1}, nil
	}

	if len(firstArg) > 0 && isLetter(rune(firstArg[0])) {
		letter := rune(firstArg[0])

		// Case 2: <letter><digits>
		if len(firstArg) > 1 && isAllDigits(firstArg[1:]) {
			num, err := strconv.Atoi(firstArg[1:])
			if err != nil {
				return TaskRef{}, fmt.Errorf("invalid task reference: %s", firstArg)
			}
			return TaskRef{Letter: letter, TaskNum: num, HasLetter: true, Consumed: 1}, nil
		}

		// Case 3: single letter followed by digits
		if len(firstArg) == 1 {
			if len(args) < 2 {
				return TaskRef{}, ErrTaskRefRequired
			}
			secondArg := args[1]
			if isAllDigits(secondArg) {
				num, err := strconv.Atoi(secondArg)
				if err != nil {
					return TaskRef{}, fmt.Errorf("invalid task reference: %s", secondArg)
				}
				return TaskRef{Letter: letter, TaskNum: num, HasLetter: true, Consumed: 2}, nil
			}
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", firstArg)
		}
	}

	return TaskRef{}, fmt.Errorf("invalid task reference: %s", firstArg)
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isLetter returns true if r is a lowercase letter a-z.
func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z'
}

// ListLetter returns the letter addressing the i-th list in snapshot order,
// or output.NoLetter past the last letter.
func ListLetter(i int) rune {
	if i < 0 || i >= maxLists {
		return output.NoLetter
	}
	return rune('a' + i)
}

// ListByLetter resolves a list letter against lists in snapshot order.
func ListByLetter(lists []repository.List, letter rune) (repository.List, error) {
	i := int(letter - 'a')
	if i < 0 || i >= len(lists) || i >= maxLists {
		return repository.List{}, fmt.Errorf("list letter not found: %c", letter)
	}
	return lists[i], nil
}

// ResolveList finds a list by letter or by name (case-insensitive, trimmed).
func ResolveList(lists []repository.List, name string) (repository.List, error) {
	name = strings.TrimSpace(name)
	if len(name) == 1 && isLetter(rune(name[0])) {
		if l, err := ListByLetter(lists, rune(name[0])); err == nil {
			return l, nil
		}
	}

	nameLower := strings.ToLower(name)
	var matches []repository.List
	for _, l := range lists {
		if strings.ToLower(strings.TrimSpace(l.Name)) == nameLower {
			matches = append(matches, l)
		}
	}

	switch len(matches) {
	case 0:
		return repository.List{}, fmt.Errorf("list not found: %s", name)
	case 1:
		return matches[0], nil
	default:
		return repository.List{}, fmt.Errorf("ambiguous list name: %s", name)
	}
}

// TaskByNumber returns the num-th task of list in display order.
func TaskByNumber(list repository.List, num int) (repository.Task, error) {
	tasks := repository.DisplayOrder(list.Tasks)
	if num < 1 || num > len(tasks) {
		return repository.Task{}, fmt.Errorf("task number out of range: %d", num)
	}
	return tasks[num-1], nil
}
