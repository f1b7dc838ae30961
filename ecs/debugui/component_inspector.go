package debugui

import (
	"fmt"
	"reflect"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/tickworks/ecs"
	"github.com/plus3/tickworks/ui"
)

// InspectorWidget is the UIManager widget name used for field edit events.
const InspectorWidget = "debugui.component_inspector"

// FieldEdit is a single field change made in the component inspector.
type FieldEdit struct {
	Target    ecs.EntityId
	Component reflect.Type
	// Field is the index path of the field inside the component struct.
	Field []int
	Value any
}

// Mutation returns an update mutation that assigns Value to the field, converting numeric
// values to the field's kind. Pointers along the path are followed; a nil pointer or a value
// that cannot be converted leaves the component unchanged.
func (e FieldEdit) Mutation() ecs.Mutation {
	return ecs.Mutation{
		Kind:   ecs.MutationUpdate,
		Target: e.Target,
		Type:   e.Component,
		Update: func(component any) {
			field, ok := fieldAt(reflect.ValueOf(component).Elem(), e.Field)
			if !ok {
				return
			}
			v := reflect.ValueOf(e.Value)
			if !field.CanSet() || !v.IsValid() || !v.Type().ConvertibleTo(field.Type()) {
				return
			}
			if (v.Kind() == reflect.String) != (field.Kind() == reflect.String) {
				return
			}
			field.Set(v.Convert(field.Type()))
		},
	}
}

// fieldAt walks path from v, dereferencing pointers on the way and at the end.
func fieldAt(v reflect.Value, path []int) (reflect.Value, bool) {
	for _, i := range path {
		if v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct || i >= v.NumField() {
			return reflect.Value{}, false
		}
		v = v.Field(i)
	}
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, true
}

// InspectorHandler applies FieldEdit events and ignores any other event value.
func InspectorHandler(ev ui.Event, _ ecs.EntityId) []ecs.Mutation {
	edit, ok := ev.Value.(FieldEdit)
	if !ok {
		return nil
	}
	return []ecs.Mutation{edit.Mutation()}
}

// SelectHandler stores a selected entity id on the inspector entity the widget is bound to.
func SelectHandler(ev ui.Event, inspector ecs.EntityId) []ecs.Mutation {
	id, ok := ev.Value.(ecs.EntityId)
	if !ok {
		return nil
	}
	return []ecs.Mutation{ecs.UpdateMutation(inspector, func(ci *ComponentInspector) {
		ci.Selected = id
	})}
}

func (ci *ComponentInspector) Render(entities *ecs.EntityManager, uiMgr *ui.Manager) {
	if !imgui.BeginV("Component Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}
	defer imgui.End()

	if ci.Selected.IsZero() {
		imgui.Text("No entity selected")
		return
	}

	sig, err := entities.Signature(ci.Selected)
	if err != nil {
		imgui.Text(fmt.Sprintf("Entity %s no longer exists", ci.Selected))
		return
	}

	imgui.Text(fmt.Sprintf("Entity: %s", ci.Selected))
	imgui.Separator()

	registry := entities.Registry()
	for _, ct := range sig.Types() {
		compType := registry.Type(ct)
		component, err := entities.GetComponent(ci.Selected, compType)
		if err != nil {
			continue
		}

		if imgui.TreeNodeStr(registry.Name(ct)) {
			ci.renderStruct(reflect.ValueOf(component).Elem(), compType, nil, uiMgr)
			imgui.TreePop()
		}
	}
}

func (ci *ComponentInspector) renderStruct(val reflect.Value, compType reflect.Type, path []int, uiMgr *ui.Manager) {
	for _, field := range fieldsOf(val.Type()) {
		fieldVal := val.FieldByIndex(field.Index)
		if field.IsPointer {
			if fieldVal.IsNil() {
				imgui.Text(fmt.Sprintf("%s: nil", field.Name))
				continue
			}
			fieldVal = fieldVal.Elem()
		}

		fieldPath := append(append([]int(nil), path...), field.Index...)
		edit := func(value any) {
			uiMgr.Post(ui.Event{
				Widget: InspectorWidget,
				Kind:   "edit",
				Value:  FieldEdit{Target: ci.Selected, Component: compType, Field: fieldPath, Value: value},
			})
		}
		ci.renderField(field.Name, fieldVal, compType, fieldPath, edit, uiMgr)
	}
}

func (ci *ComponentInspector) renderField(name string, val reflect.Value, compType reflect.Type, path []int, edit func(any), uiMgr *ui.Manager) {
	label := fmt.Sprintf("##%s%v", name, path)

	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := int32(val.Int())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(label, &v) {
			edit(int64(v))
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := int32(val.Uint())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(label, &v) && v >= 0 {
			edit(uint64(v))
		}

	case reflect.Float32, reflect.Float64:
		v := float32(val.Float())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputFloat(label, &v) {
			edit(float64(v))
		}

	case reflect.Bool:
		v := val.Bool()
		if imgui.Checkbox(name, &v) {
			edit(v)
		}

	case reflect.String:
		v := val.String()
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(200)
		if imgui.InputTextWithHint(label, "", &v, imgui.InputTextFlagsNone, nil) {
			edit(v)
		}

	case reflect.Struct:
		if imgui.TreeNodeStr(name) {
			ci.renderStruct(val, compType, path, uiMgr)
			imgui.TreePop()
		}

	case reflect.Slice:
		imgui.Text(fmt.Sprintf("%s: [%d items]", name, val.Len()))

	case reflect.Map:
		imgui.Text(fmt.Sprintf("%s: map[%d items]", name, val.Len()))

	default:
		imgui.Text(fmt.Sprintf("%s: %v", name, val.Interface()))
	}
}
