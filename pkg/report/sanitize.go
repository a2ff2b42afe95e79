package report

import (
	"fmt"
	"reflect"
	"time"
)

// SanitizeReport returns a copy of the report whose free-form fields contain
// only JSON-encodable values. Reports destined for durable storage pass
// through here so internal engine objects never leak into the archive.
func SanitizeReport(rep *Report) *Report {
	sanitized := *rep

	if rep.Metadata != nil {
		sanitized.Metadata = Sanitize(rep.Metadata).(map[string]any)
	}

	if rep.Tasks != nil {
		tasks := make([]*TaskReport, 0, len(rep.Tasks))

		for _, task := range rep.Tasks {
			exec := *task.Exec
			exec.Inputs = Sanitize(exec.Inputs)
			exec.Reporting = Sanitize(exec.Reporting)

			if exec.Outputs != nil {
				exec.Outputs = Sanitize(exec.Outputs).(map[string]any)
			}

			tasks = append(tasks, &TaskReport{Template: task.Template, Exec: &exec})
		}

		sanitized.Tasks = tasks
	}

	return &sanitized
}

// Sanitize recursively replaces any value outside the serializable whitelist
// (maps, slices, strings, numbers, booleans, nil, timestamps) with a string
// naming the offending type. Sibling values are left untouched.
func Sanitize(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return typed
	case time.Time, *time.Time:
		return typed
	case map[string]any:
		sanitized := make(map[string]any, len(typed))
		for key, item := range typed {
			sanitized[key] = Sanitize(item)
		}

		return sanitized
	case []any:
		sanitized := make([]any, len(typed))
		for i, item := range typed {
			sanitized[i] = Sanitize(item)
		}

		return sanitized
	}

	return sanitizeReflect(value)
}

// sanitizeReflect handles typed maps and slices that did not match the
// concrete cases above.
func sanitizeReflect(value any) any {
	rv := reflect.ValueOf(value)

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}

		sanitized := make(map[string]any, rv.Len())
		for _, key := range rv.MapKeys() {
			sanitized[key.String()] = Sanitize(rv.MapIndex(key).Interface())
		}

		return sanitized
	case reflect.Slice, reflect.Array:
		sanitized := make([]any, rv.Len())
		for i := range rv.Len() {
			sanitized[i] = Sanitize(rv.Index(i).Interface())
		}

		return sanitized
	default:
	}

	return fmt.Sprintf("<unserializable %T>", value)
}
