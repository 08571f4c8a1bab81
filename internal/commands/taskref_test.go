package commands

import (
	"errors"
	"testing"

	"fstodo/internal/repository"
)

func TestParseTaskRef(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want TaskRef
	}{
		{"numeric", []string{"5"}, TaskRef{TaskNum: 5, Consumed: 1}},
		{"combined", []string{"a1"}, TaskRef{Letter: 'a', TaskNum: 1, HasLetter: true, Consumed: 1}},
		{"combined multi digit", []string{"b12"}, TaskRef{Letter: 'b', TaskNum: 12, HasLetter: true, Consumed: 1}},
		{"separated", []string{"c", "3"}, TaskRef{Letter: 'c', TaskNum: 3, HasLetter: true, Consumed: 2}},
		{"last letter", []string{"z99"}, TaskRef{Letter: 'z', TaskNum: 99, HasLetter: true, Consumed: 1}},
		{"trailing words", []string{"a2", "new", "name"}, TaskRef{Letter: 'a', TaskNum: 2, HasLetter: true, Consumed: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTaskRef(tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseTaskRef(%q) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}

func TestParseTaskRef_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{"letter only", []string{"a"}, "task reference required"},
		{"invalid", []string{"abc"}, "invalid task reference: abc"},
		{"uppercase", []string{"A1"}, "invalid task reference: A1"},
		{"non-digit second", []string{"a", "xyz"}, "invalid task reference: a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTaskRef(tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("expected %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestParseTaskRef_NoArgs(t *testing.T) {
	_, err := ParseTaskRef(nil)
	if !errors.Is(err, ErrTaskRefRequired) {
		t.Errorf("expected ErrTaskRefRequired, got %v", err)
	}
}

var refLists = []repository.List{
	{ID: "l1", Name: "Groceries", Tasks: []repository.Task{
		{ID: "a", Name: "Milk", Done: true},
		{ID: "b", Name: "Eggs"},
	}},
	{ID: "l2", Name: "Work"},
	{ID: "l3", Name: "work "},
}

func TestResolveList(t *testing.T) {
	l, err := ResolveList(refLists, "b")
	if err != nil || l.ID != "l2" {
		t.Errorf("ResolveList(b) = %v, %v", l.ID, err)
	}

	l, err = ResolveList(refLists, "  groceries ")
	if err != nil || l.ID != "l1" {
		t.Errorf("ResolveList(groceries) = %v, %v", l.ID, err)
	}

	if _, err := ResolveList(refLists, "Work"); err == nil || err.Error() != "ambiguous list name: Work" {
		t.Errorf("expected ambiguous error, got %v", err)
	}
	if _, err := ResolveList(refLists, "Garden"); err == nil || err.Error() != "list not found: Garden" {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestListByLetter_OutOfRange(t *testing.T) {
	if _, err := ListByLetter(refLists, 'd'); err == nil {
		t.Error("expected error for letter past the last list")
	}
}

func TestTaskByNumber_DisplayOrder(t *testing.T) {
	// Open tasks are numbered before done ones
	task, err := TaskByNumber(refLists[0], 1)
	if err != nil || task.ID != "b" {
		t.Errorf("TaskByNumber(1) = %v, %v", task.ID, err)
	}
	task, err = TaskByNumber(refLists[0], 2)
	if err != nil || task.ID != "a" {
		t.Errorf("TaskByNumber(2) = %v, %v", task.ID, err)
	}
	if _, err := TaskByNumber(refLists[0], 3); err == nil {
		t.Error("expected out of range error")
	}
}

func TestLookupTask(t *testing.T) {
	if _, err := lookupTask(refLists, "Groceries", []string{"a1"}); err == nil ||
		err.Error() != "cannot use both --list and list letter" {
		t.Errorf("expected flag conflict error, got %v", err)
	}
	if _, err := lookupTask(refLists, "", []string{"1"}); err == nil ||
		err.Error() != "list letter required (e.g. a1)" {
		t.Errorf("expected letter required error, got %v", err)
	}

	target, err := lookupTask(refLists, "groceries", []string{"2", "rest"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Task.ID != "a" || len(target.Rest) != 1 || target.Rest[0] != "rest" {
		t.Errorf("unexpected target: %+v", target)
	}

	single := refLists[:1]
	target, err = lookupTask(single, "", []string{"1"})
	if err != nil || target.Task.ID != "b" {
		t.Errorf("single list lookup = %+v, %v", target, err)
	}
}
