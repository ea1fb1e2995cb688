package confopts

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// TagName is the struct tag consulted when building descriptors,
// e.g. `conf:"port,required"`.
const TagName = "conf"

// FieldKind classifies how a descriptor field is populated from the view.
type FieldKind int

const (
	KindString FieldKind = iota
	KindInt
	KindUint
	KindFloat
	KindBool
	KindDuration
	KindNested
	KindRepeated
)

func (k FieldKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindDuration:
		return "duration"
	case KindNested:
		return "nested"
	case KindRepeated:
		return "repeated"
	default:
		return "unknown"
	}
}

// Field is the static binding metadata for one struct field: the key suffix
// it reads, how the raw string converts, and whether absence is an error.
type Field struct {
	Name     string
	Suffix   string
	Kind     FieldKind
	Required bool

	// Elem describes the element layout for nested structs and repeated
	// struct elements. ElemKind is set instead for repeated scalars.
	Elem     *Descriptor
	ElemKind FieldKind

	index int
}

// Descriptor is the binding layout of one target type. It is built once, at
// registration time; binding itself performs no introspection.
type Descriptor struct {
	Type   reflect.Type
	Fields []Field
}

var durationType = reflect.TypeOf(time.Duration(0))

// Describe builds a Descriptor for a struct type, given a value or pointer of
// that type. Field suffixes default to the field name and can be overridden
// with the conf tag; the "required" tag option marks absence as an error and
// "-" skips the field.
func Describe(target any) (*Descriptor, error) {
	t := reflect.TypeOf(target)
	if t == nil {
		return nil, fmt.Errorf("describe: target is nil")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("describe: %s is not a struct", t)
	}
	return describeType(t)
}

func describeType(t reflect.Type) (*Descriptor, error) {
	desc := &Descriptor{Type: t}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		suffix, required, skip := parseTag(sf)
		if skip {
			continue
		}
		if err := ValidateKey(suffix); err != nil {
			return nil, fmt.Errorf("describe %s.%s: %w", t, sf.Name, err)
		}

		f := Field{Name: sf.Name, Suffix: suffix, Required: required, index: i}

		ft := sf.Type
		if ft.Kind() == reflect.Pointer && ft.Elem().Kind() == reflect.Struct {
			ft = ft.Elem()
		}

		switch {
		case ft == durationType:
			f.Kind = KindDuration
		case ft.Kind() == reflect.String:
			f.Kind = KindString
		case isIntKind(ft.Kind()):
			f.Kind = KindInt
		case isUintKind(ft.Kind()):
			f.Kind = KindUint
		case ft.Kind() == reflect.Float32 || ft.Kind() == reflect.Float64:
			f.Kind = KindFloat
		case ft.Kind() == reflect.Bool:
			f.Kind = KindBool
		case ft.Kind() == reflect.Struct:
			elem, err := describeType(ft)
			if err != nil {
				return nil, err
			}
			f.Kind = KindNested
			f.Elem = elem
		case ft.Kind() == reflect.Slice:
			if err := describeElem(&f, ft.Elem()); err != nil {
				return nil, fmt.Errorf("describe %s.%s: %w", t, sf.Name, err)
			}
		default:
			return nil, fmt.Errorf("describe %s.%s: unsupported field type %s", t, sf.Name, sf.Type)
		}

		desc.Fields = append(desc.Fields, f)
	}

	return desc, nil
}

// describeElem fills in the repeated-element layout for a slice field.
func describeElem(f *Field, et reflect.Type) error {
	f.Kind = KindRepeated
	switch {
	case et == durationType:
		f.ElemKind = KindDuration
	case et.Kind() == reflect.String:
		f.ElemKind = KindString
	case isIntKind(et.Kind()):
		f.ElemKind = KindInt
	case isUintKind(et.Kind()):
		f.ElemKind = KindUint
	case et.Kind() == reflect.Float32 || et.Kind() == reflect.Float64:
		f.ElemKind = KindFloat
	case et.Kind() == reflect.Bool:
		f.ElemKind = KindBool
	case et.Kind() == reflect.Struct:
		elem, err := describeType(et)
		if err != nil {
			return err
		}
		f.Elem = elem
	default:
		return fmt.Errorf("unsupported slice element type %s", et)
	}
	return nil
}

func parseTag(sf reflect.StructField) (suffix string, required, skip bool) {
	suffix = sf.Name
	tag := sf.Tag.Get(TagName)
	if tag == "-" {
		return "", false, true
	}
	if tag == "" {
		return suffix, false, false
	}
	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		suffix = parts[0]
	}
	for _, opt := range parts[1:] {
		if opt == "required" {
			required = true
		}
	}
	return suffix, required, false
}

func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUintKind(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
