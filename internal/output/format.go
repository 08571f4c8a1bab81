// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"fstodo/internal/repository"
)

const (
	// ListSeparator is the separator line for list sections.
	ListSeparator = "------------"

	// NoLetter marks a list that has no letter. Its header shows "[-]" and
	// its tasks show bare numbers, usable with --list.
	NoLetter rune = 0
)

func letterString(letter rune) string {
	if letter == NoLetter {
		return "-"
	}
	return string(letter)
}

// FormatListHeader formats a list section header.
// Format: separator, "[{letter}] {NAME}", separator.
func FormatListHeader(w io.Writer, letter rune, name string) {
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintf(w, "[%s] %s\n", letterString(letter), normalizeListName(name))
	fmt.Fprintln(w, ListSeparator)
}

// FormatTask formats a task line inside a list section.
// Format: "{REF:>5}  [ ] {NAME}\n", with [x] for done tasks.
func FormatTask(w io.Writer, letter rune, num int, task repository.Task) {
	mark := " "
	if task.Done {
		mark = "x"
	}
	ref := fmt.Sprintf("%c%d", letter, num)
	if letter == NoLetter {
		ref = fmt.Sprintf("%d", num)
	}
	fmt.Fprintf(w, "%5s  [%s] %s\n", ref, mark, DisplayName(task.Name))
}

// FormatList formats a whole list section with tasks in display order.
func FormatList(w io.Writer, letter rune, list repository.List) {
	FormatListHeader(w, letter, list.Name)
	for i, task := range repository.DisplayOrder(list.Tasks) {
		FormatTask(w, letter, i+1, task)
	}
}

// FormatListName formats a list name with its task counts for the lists command.
func FormatListName(w io.Writer, letter rune, list repository.List) {
	done := 0
	for _, t := range list.Tasks {
		if t.Done {
			done++
		}
	}
	fmt.Fprintf(w, "%s  %s (%d open, %d done)\n", letterString(letter), normalizeListName(list.Name), len(list.Tasks)-done, done)
}

// FormatMembership formats an instance line for the instances command.
func FormatMembership(w io.Writer, m repository.Membership, active bool) {
	line := fmt.Sprintf("%s  %s", m.InstanceID, normalizeListName(m.InstanceName))
	if active {
		line += " [active]"
	}
	fmt.Fprintln(w, line)
}

// DisplayName normalizes a task name for display.
// - Empty or whitespace-only names become "(untitled)"
// - Newlines are replaced with spaces
func DisplayName(name string) string {
	name = strings.ReplaceAll(name, "\r", " ")
	name = strings.ReplaceAll(name, "\n", " ")

	if strings.TrimSpace(name) == "" {
		return "(untitled)"
	}
	return name
}

// normalizeListName normalizes a list name for display.
// Empty or whitespace-only names become "(untitled)".
func normalizeListName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "(untitled)"
	}
	return name
}
