package aggregate

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/nakachan-ing/dtl-cli/internal/model"
)

type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// SortState is the single active sort column of a list.
type SortState struct {
	Key       string
	Direction Direction
}

// Toggle flips the direction when key is already active and otherwise
// switches to key in ascending order.
func (s SortState) Toggle(key string) SortState {
	if s.Key == key {
		if s.Direction == Ascending {
			s.Direction = Descending
		} else {
			s.Direction = Ascending
		}
		return s
	}
	return SortState{Key: key, Direction: Ascending}
}

// Accessor extracts the value a list is sorted by.
type Accessor[T any] func(T) any

// TaskFields are the sortable task columns.
var TaskFields = map[string]Accessor[model.Task]{
	"title":     func(t model.Task) any { return t.Title },
	"status":    func(t model.Task) any { return string(t.Status) },
	"due_date":  func(t model.Task) any { return t.DueDate.Time() },
	"work_days": func(t model.Task) any { return t.WorkDaysCount },
	"company":   func(t model.Task) any { return t.CompanyServed },
	"documents": func(t model.Task) any { return t.AttachedDocuments },
	"comments":  func(t model.Task) any { return t.Comments },
}

var TaskTypeFields = map[string]Accessor[model.TaskType]{
	"id":   func(t model.TaskType) any { return t.ID },
	"name": func(t model.TaskType) any { return t.Name },
}

// Sort returns a stably sorted copy of items. Unknown keys leave the
// order unchanged.
func Sort[T any](items []T, state SortState, fields map[string]Accessor[T]) []T {
	sorted := append([]T(nil), items...)
	get, ok := fields[state.Key]
	if !ok {
		return sorted
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		c := Compare(get(sorted[i]), get(sorted[j]))
		if state.Direction == Descending {
			return c > 0
		}
		return c < 0
	})
	return sorted
}

// Compare orders two field values with plain less/greater semantics.
// Collections compare by length and structs (or pointers to them)
// compare by their Name field; a nil group sorts first.
func Compare(a, b any) int {
	a, b = sortValue(a), sortValue(b)
	switch x := a.(type) {
	case nil:
		if b == nil {
			return 0
		}
		return -1
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case int64:
		if y, ok := b.(int64); ok {
			return cmpOrdered(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmpOrdered(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			return cmpOrdered(boolInt(x), boolInt(y))
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	if b == nil {
		return 1
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func sortValue(v any) any {
	if v == nil {
		return nil
	}
	if t, ok := v.(time.Time); ok {
		return t
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return int64(rv.Len())
	case reflect.Struct:
		if name := rv.FieldByName("Name"); name.IsValid() && name.Kind() == reflect.String {
			return name.String()
		}
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		return rv.Bool()
	}
	return rv.Interface()
}

func cmpOrdered[T int64 | float64 | int](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
