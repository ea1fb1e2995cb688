package confopts

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Bind materializes the subtree at prefix onto a fresh instance of the
// descriptor's type and returns it as a pointer. Problems do not stop the
// pass: every missing required key and failed conversion in the subtree is
// collected into one BindingError.
func Bind(view *View, prefix string, desc *Descriptor) (any, error) {
	if prefix != "" {
		if err := ValidateKey(prefix); err != nil {
			return nil, err
		}
	}
	out := reflect.New(desc.Type)
	be := &BindingError{Prefix: prefix, Type: desc.Type.String()}
	bindStruct(view, prefix, desc, out.Elem(), be)
	if len(be.Errs) > 0 {
		return nil, be
	}
	return out.Interface(), nil
}

func bindStruct(view *View, prefix string, desc *Descriptor, dst reflect.Value, be *BindingError) {
	for _, f := range desc.Fields {
		key := joinPrefix(prefix, f.Suffix)
		fv := dst.Field(f.index)

		switch f.Kind {
		case KindNested:
			bindNested(view, key, f, fv, be)
		case KindRepeated:
			bindRepeated(view, key, f, fv, be)
		default:
			raw, ok := view.Get(key)
			if !ok {
				if f.Required {
					be.add(&MissingKeyError{Field: f.Name, Key: key})
				}
				continue
			}
			if err := setScalar(fv, f.Kind, raw); err != nil {
				be.add(&ConversionError{Field: f.Name, Key: key, Value: raw, Kind: f.Kind, Err: err})
			}
		}
	}
}

// bindNested recurses into a nested struct field. A pointer field is
// allocated only when the view defines keys under its subtree; an absent
// optional subtree leaves the pointer nil. An absent required subtree records
// a MissingKeyError for the field itself, whether pointer or plain.
func bindNested(view *View, key string, f Field, fv reflect.Value, be *BindingError) {
	if !view.hasPrefix(key) {
		if f.Required {
			be.add(&MissingKeyError{Field: f.Name, Key: key})
			return
		}
		if fv.Kind() == reflect.Pointer {
			return
		}
	}
	target := fv
	if fv.Kind() == reflect.Pointer {
		fv.Set(reflect.New(fv.Type().Elem()))
		target = fv.Elem()
	}
	bindStruct(view, key, f.Elem, target, be)
}

// bindRepeated enumerates indexed children starting at zero; the first
// missing index terminates the sequence. A required repeated field must
// define at least index zero; an element that is present but unconvertible
// satisfies presence and reports only its ConversionError.
func bindRepeated(view *View, key string, f Field, fv reflect.Value, be *BindingError) {
	slice := reflect.MakeSlice(fv.Type(), 0, 0)
	seen := false

	for i := 0; ; i++ {
		elemKey := indexedKey(key, i)

		if f.Elem != nil {
			if !view.Has(elemKey) && !view.hasPrefix(elemKey) {
				break
			}
			seen = true
			elem := reflect.New(f.Elem.Type).Elem()
			bindStruct(view, elemKey, f.Elem, elem, be)
			slice = reflect.Append(slice, elem)
			continue
		}

		raw, ok := view.Get(elemKey)
		if !ok {
			break
		}
		seen = true
		elem := reflect.New(fv.Type().Elem()).Elem()
		if err := setScalar(elem, f.ElemKind, raw); err != nil {
			be.add(&ConversionError{Field: f.Name, Key: elemKey, Value: raw, Kind: f.ElemKind, Err: err})
			continue
		}
		slice = reflect.Append(slice, elem)
	}

	if f.Required && !seen {
		be.add(&MissingKeyError{Field: f.Name, Key: indexedKey(key, 0)})
		return
	}
	if slice.Len() > 0 {
		fv.Set(slice)
	}
}

// setScalar converts a raw string per the declared kind and stores it.
func setScalar(fv reflect.Value, kind FieldKind, raw string) error {
	switch kind {
	case KindString:
		fv.SetString(raw)
	case KindInt:
		i, err := strconv.ParseInt(raw, 0, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetInt(i)
	case KindUint:
		u, err := strconv.ParseUint(raw, 0, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetUint(u)
	case KindFloat:
		fl, err := strconv.ParseFloat(raw, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetFloat(fl)
	case KindBool:
		b, err := parseStrictBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case KindDuration:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		fv.SetInt(int64(d))
	default:
		return fmt.Errorf("kind %s is not a scalar", kind)
	}
	return nil
}

// parseStrictBool accepts the canonical true/false tokens case-insensitively
// and nothing else, so numeric strings never pass as booleans.
func parseStrictBool(raw string) (bool, error) {
	switch {
	case strings.EqualFold(raw, "true"):
		return true, nil
	case strings.EqualFold(raw, "false"):
		return false, nil
	}
	return false, fmt.Errorf("not a boolean token")
}
