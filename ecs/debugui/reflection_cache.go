package debugui

import (
	"reflect"
	"sync"
)

// FieldInfo describes one exported field of a component struct.
type FieldInfo struct {
	Name      string
	Type      reflect.Type
	Index     []int
	IsPointer bool
}

var fieldCache sync.Map // reflect.Type -> []FieldInfo

// fieldsOf returns the exported fields of t, or nil when t is not a struct.
// Index is relative to t, so nested structs extend their parent's index.
func fieldsOf(t reflect.Type) []FieldInfo {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]FieldInfo)
	}

	var fields []FieldInfo
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}

			fieldType := field.Type
			isPointer := fieldType.Kind() == reflect.Ptr
			if isPointer {
				fieldType = fieldType.Elem()
			}

			fields = append(fields, FieldInfo{
				Name:      field.Name,
				Type:      fieldType,
				Index:     []int{i},
				IsPointer: isPointer,
			})
		}
	}

	actual, _ := fieldCache.LoadOrStore(t, fields)
	return actual.([]FieldInfo)
}
