package activity

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/aura-travel/backend/internal/models"
)

// Snapshot is a flat view of a tracked entity, keyed by field name.
type Snapshot map[string]any

// Normalize renders a field value in the comparable form stored in diffs.
func Normalize(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return ""
		}
		return t.String()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return ""
		}
		return Normalize(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "0 items"
		}
		return fmt.Sprintf("%d items", rv.Len())
	case reflect.Map:
		return fmt.Sprintf("%d items", rv.Len())
	}
	return fmt.Sprint(v)
}

// BuildChanges emits one change per tracked field whose normalized value differs.
func BuildChanges(before, after Snapshot, fields []string) []models.FieldChange {
	var out []models.FieldChange
	for _, f := range fields {
		from := Normalize(before[f])
		to := Normalize(after[f])
		if from == to {
			continue
		}
		out = append(out, models.FieldChange{Field: f, From: &from, To: &to})
	}
	return out
}

// BuildCreateChanges records the initial value of every non-empty tracked field.
func BuildCreateChanges(after Snapshot, fields []string) []models.FieldChange {
	var out []models.FieldChange
	for _, f := range fields {
		to := Normalize(after[f])
		if to == "" {
			continue
		}
		out = append(out, models.FieldChange{Field: f, To: &to})
	}
	return out
}

// BuildDeleteChanges records the last value of every non-empty tracked field.
func BuildDeleteChanges(before Snapshot, fields []string) []models.FieldChange {
	var out []models.FieldChange
	for _, f := range fields {
		from := Normalize(before[f])
		if from == "" {
			continue
		}
		out = append(out, models.FieldChange{Field: f, From: &from})
	}
	return out
}
