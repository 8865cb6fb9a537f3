package aggregate

import (
	"testing"

	"github.com/nakachan-ing/dtl-cli/internal/model"
)

func TestToggle(t *testing.T) {
	s := SortState{}.Toggle("name")
	if s.Key != "name" || s.Direction != Ascending {
		t.Fatalf("new key should start ascending, got %+v", s)
	}
	s = s.Toggle("name")
	if s.Direction != Descending {
		t.Fatalf("same key should flip to descending")
	}
	s = s.Toggle("name")
	if s.Direction != Ascending {
		t.Fatalf("same key should flip back to ascending")
	}
	s = s.Toggle("name").Toggle("id")
	if s.Key != "id" || s.Direction != Ascending {
		t.Fatalf("new key should reset to ascending, got %+v", s)
	}
}

func TestSortTaskTypes(t *testing.T) {
	types := []model.TaskType{{ID: 3, Name: "Meeting"}, {ID: 1, Name: "Coding"}, {ID: 2, Name: "Review"}}
	byName := Sort(types, SortState{Key: "name"}, TaskTypeFields)
	if byName[0].Name != "Coding" || byName[2].Name != "Review" {
		t.Fatalf("unexpected order %+v", byName)
	}
	byID := Sort(types, SortState{Key: "id", Direction: Descending}, TaskTypeFields)
	if byID[0].ID != 3 || byID[2].ID != 1 {
		t.Fatalf("unexpected order %+v", byID)
	}
	if types[0].ID != 3 {
		t.Fatalf("Sort must not reorder its input")
	}
}

func TestSortDereferencesGroupName(t *testing.T) {
	tasks := []model.Task{
		{ID: "z", CompanyServed: &model.Company{Name: "Zeta"}},
		{ID: "none"},
		{ID: "a", CompanyServed: &model.Company{Name: "Alpha"}},
	}
	sorted := Sort(tasks, SortState{Key: "company"}, TaskFields)
	if ids(sorted) != "[none a z]" {
		t.Fatalf("company sort = %s", ids(sorted))
	}
}

func TestSortByCollectionLength(t *testing.T) {
	tasks := []model.Task{
		{ID: "two", AttachedDocuments: make([]model.Document, 2)},
		{ID: "zero"},
		{ID: "ten", AttachedDocuments: make([]model.Document, 10)},
	}
	sorted := Sort(tasks, SortState{Key: "documents", Direction: Descending}, TaskFields)
	if ids(sorted) != "[ten two zero]" {
		t.Fatalf("documents sort = %s", ids(sorted))
	}
}

func TestSortUnknownKeyKeepsOrder(t *testing.T) {
	sorted := Sort(sampleTasks(), SortState{Key: "bogus"}, TaskFields)
	if ids(sorted) != ids(sampleTasks()) {
		t.Fatalf("unknown key reordered tasks")
	}
}

func TestCompare(t *testing.T) {
	if Compare(2, 10) >= 0 || Compare("b", "a") <= 0 || Compare(nil, "x") >= 0 || Compare(1.5, 1.5) != 0 {
		t.Fatalf("Compare ordering is wrong")
	}
	if Compare([]int{1, 2}, []int{1}) <= 0 {
		t.Fatalf("slices should compare by length")
	}
}
