package confopts

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Scan decodes the subtree at prefix from the current merged view into the
// target struct or map, using weakly-typed mapstructure conversion instead
// of a registered descriptor. It is the untyped convenience path: no
// required-field checks and no error aggregation, but arbitrary targets.
func (r *Registry) Scan(prefix string, target any) error {
	return Scan(r.broker.View(), prefix, target)
}

// Scan decodes a view subtree into target. The target must be a non-nil
// pointer. Indexed children are reassembled into slices before decoding.
func Scan(view *View, prefix string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("scan target must be a non-nil pointer, got %T", target)
	}

	nested := make(map[string]any)
	for _, key := range view.Keys() {
		value, _ := view.Get(key)
		setNestedValue(nested, key, value)
	}

	section := liftArrays(navigateToPath(nested, prefix))
	if section == nil {
		section = map[string]any{}
	}
	sectionMap, ok := section.(map[string]any)
	if !ok {
		return fmt.Errorf("path %q refers to a non-map value (type %T)", prefix, section)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          TagName,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToURLHookFunc(),
			stringToNetIPHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}
	if err := decoder.Decode(sectionMap); err != nil {
		return fmt.Errorf("decode failed for path %q: %w", prefix, err)
	}
	return nil
}

// stringToURLHookFunc handles url.URL conversion.
func stringToURLHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		isPtr := t.Kind() == reflect.Pointer
		targetType := t
		if isPtr {
			targetType = t.Elem()
		}
		if targetType != reflect.TypeOf(url.URL{}) {
			return data, nil
		}

		u, err := url.Parse(data.(string))
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
		if isPtr {
			return u, nil
		}
		return *u, nil
	}
}

// stringToNetIPHookFunc handles net.IP conversion.
func stringToNetIPHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		if t != reflect.TypeOf(net.IP{}) {
			return data, nil
		}
		ip := net.ParseIP(data.(string))
		if ip == nil {
			return nil, fmt.Errorf("invalid IP address: %s", data)
		}
		return ip, nil
	}
}
