package sion

import (
	"reflect"
	"slices"
	"strings"
)

// structField is a struct field that takes part in binding or marshaling.
type structField struct {
	// Name is the map key the field is bound to
	Name string

	Type  reflect.Type
	Index []int

	// OmitEmpty skips zero values when marshaling
	OmitEmpty bool
}

type fieldTag struct {
	Name      string
	Explicit  bool
	Skip      bool
	OmitEmpty bool
}

// fieldsOf lists the fields of the struct type ty. Embedded structs are
// flattened, a name is resolved to the least nested field. On the same
// nesting level a field named by the struct tag wins, if there is exactly one.
// Conflicting names are dropped silently.
func fieldsOf(ty reflect.Type, structTag string) []structField {
	type pending struct {
		Type        reflect.Type
		ParentIndex []int
	}

	type candidate struct {
		Explicit bool
		Field    structField
	}

	queue := []pending{{Type: ty}}
	candidates := map[string][]candidate{}

	// names in order of first appearance
	var names []string

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		for idx := range item.Type.NumField() {
			fi := item.Type.Field(idx)
			if !fi.IsExported() && !fi.Anonymous {
				continue
			}

			tag := parseFieldTag(fi, structTag)
			if tag.Skip {
				continue
			}

			// copy the parent index, siblings must not share the backing array
			index := append(slices.Clip(item.ParentIndex), fi.Index...)

			if fi.Anonymous && !tag.Explicit {
				if fi.Type.Kind() == reflect.Struct {
					queue = append(queue, pending{Type: fi.Type, ParentIndex: index})
				}

				continue
			}

			if !fi.IsExported() {
				continue
			}

			if len(candidates[tag.Name]) == 0 {
				names = append(names, tag.Name)
			}

			candidates[tag.Name] = append(candidates[tag.Name], candidate{
				Explicit: tag.Explicit,
				Field: structField{
					Name:      tag.Name,
					Type:      fi.Type,
					Index:     index,
					OmitEmpty: tag.OmitEmpty,
				},
			})
		}
	}

	var fields []structField

	for _, name := range names {
		// breadth first order: candidates are sorted by nesting depth
		named := candidates[name]

		depth := len(named[0].Field.Index)
		visible := slices.DeleteFunc(slices.Clone(named), func(c candidate) bool {
			return len(c.Field.Index) != depth
		})

		if len(visible) == 1 {
			fields = append(fields, visible[0].Field)
			continue
		}

		explicit := slices.DeleteFunc(visible, func(c candidate) bool { return !c.Explicit })
		if len(explicit) == 1 {
			fields = append(fields, explicit[0].Field)
		}
	}

	return fields
}

func parseFieldTag(fi reflect.StructField, structTag string) fieldTag {
	tag, ok := fi.Tag.Lookup(structTag)
	if !ok || tag == "" {
		return fieldTag{Name: fi.Name}
	}

	if tag == "-" {
		return fieldTag{Skip: true}
	}

	name, options, _ := strings.Cut(tag, ",")

	result := fieldTag{Name: name, Explicit: name != ""}
	if name == "" {
		result.Name = fi.Name
	}

	for options != "" {
		var option string
		option, options, _ = strings.Cut(options, ",")
		if option == "omitempty" {
			result.OmitEmpty = true
		}
	}

	return result
}
