package confopts

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	exprlang "github.com/expr-lang/expr"
	validatorv10 "github.com/go-playground/validator/v10"
)

// ValidatorFunc checks a bound instance for the named options. A nil return
// is a pass; any error is a failure. Validators in a chain all run; their
// findings are aggregated rather than short-circuited.
type ValidatorFunc func(instance any, name string) error

// SupplierFunc post-processes a bound instance before validation. Suppliers
// stack: each one sees the output of the previous. The instance is always a
// pointer to the registered struct type.
type SupplierFunc func(instance any) error

// runValidators evaluates the full chain and folds every failure into one
// ValidationError tagged with the option's name.
func runValidators(validators []ValidatorFunc, instance any, name string) error {
	var msgs []string
	for _, v := range validators {
		err := v(instance, name)
		if err == nil {
			continue
		}
		var ve *ValidationError
		if errors.As(err, &ve) {
			msgs = append(msgs, ve.Messages...)
			continue
		}
		msgs = append(msgs, err.Error())
	}
	if len(msgs) > 0 {
		return &ValidationError{Name: name, Messages: msgs}
	}
	return nil
}

// Rule identifies a constraint kind evaluated by the generic checker.
type Rule int

const (
	// RuleNonZero fails when the field holds its zero value.
	RuleNonZero Rule = iota
	// RuleMin fails when a numeric field is below the parameter.
	RuleMin
	// RuleMax fails when a numeric field is above the parameter.
	RuleMax
	// RuleOneOf fails unless the field's string form matches one of the
	// comma-separated parameter tokens.
	RuleOneOf
	// RulePattern fails unless the field's string form matches the
	// parameter, interpreted as a regular expression.
	RulePattern
)

// Constraint is a data-described validation record: which field, which rule,
// and the rule's parameter.
type Constraint struct {
	Field string
	Rule  Rule
	Param string
}

// Constraints builds a validator that evaluates the records against a bound
// instance. Field names may be dotted to reach nested structs. Every failed
// constraint produces its own message.
func Constraints(constraints ...Constraint) ValidatorFunc {
	// Patterns compile once; a bad pattern fails every run with its own
	// message instead of panicking at registration.
	patterns := make(map[int]*regexp.Regexp, len(constraints))
	patternErrs := make(map[int]error)
	for i, c := range constraints {
		if c.Rule != RulePattern {
			continue
		}
		re, err := regexp.Compile(c.Param)
		if err != nil {
			patternErrs[i] = err
			continue
		}
		patterns[i] = re
	}

	return func(instance any, name string) error {
		var msgs []string
		for i, c := range constraints {
			fv, err := fieldByPath(instance, c.Field)
			if err != nil {
				msgs = append(msgs, err.Error())
				continue
			}
			if perr, bad := patternErrs[i]; bad {
				msgs = append(msgs, fmt.Sprintf("field %s: invalid pattern %q: %v", c.Field, c.Param, perr))
				continue
			}
			if msg := checkConstraint(c, fv, patterns[i]); msg != "" {
				msgs = append(msgs, msg)
			}
		}
		if len(msgs) > 0 {
			return &ValidationError{Name: name, Messages: msgs}
		}
		return nil
	}
}

func checkConstraint(c Constraint, fv reflect.Value, re *regexp.Regexp) string {
	switch c.Rule {
	case RuleNonZero:
		if fv.IsZero() {
			return fmt.Sprintf("field %s must not be zero", c.Field)
		}
	case RuleMin, RuleMax:
		n, ok := numericValue(fv)
		if !ok {
			return fmt.Sprintf("field %s is not numeric", c.Field)
		}
		limit, err := strconv.ParseFloat(c.Param, 64)
		if err != nil {
			return fmt.Sprintf("field %s: invalid limit %q", c.Field, c.Param)
		}
		if c.Rule == RuleMin && n < limit {
			return fmt.Sprintf("field %s is %v, below minimum %s", c.Field, n, c.Param)
		}
		if c.Rule == RuleMax && n > limit {
			return fmt.Sprintf("field %s is %v, above maximum %s", c.Field, n, c.Param)
		}
	case RuleOneOf:
		s := fmt.Sprintf("%v", fv.Interface())
		for _, tok := range strings.Split(c.Param, ",") {
			if s == strings.TrimSpace(tok) {
				return ""
			}
		}
		return fmt.Sprintf("field %s is %q, not one of [%s]", c.Field, s, c.Param)
	case RulePattern:
		s := fmt.Sprintf("%v", fv.Interface())
		if !re.MatchString(s) {
			return fmt.Sprintf("field %s is %q, which does not match %q", c.Field, s, c.Param)
		}
	}
	return ""
}

func numericValue(fv reflect.Value) (float64, bool) {
	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(fv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(fv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return fv.Float(), true
	}
	return 0, false
}

// fieldByPath resolves a dotted field path on a struct instance.
func fieldByPath(instance any, path string) (reflect.Value, error) {
	v := reflect.ValueOf(instance)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	for _, segment := range strings.Split(path, ".") {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field %s: %s is not a struct", path, v.Type())
		}
		v = v.FieldByName(segment)
		if !v.IsValid() {
			return reflect.Value{}, fmt.Errorf("field %s: no field %q", path, segment)
		}
		for v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, fmt.Errorf("field %s: nil pointer at %q", path, segment)
			}
			v = v.Elem()
		}
	}
	return v, nil
}

// ExprValidator builds a validator from boolean rule expressions evaluated
// against the bound instance, e.g. "Port > 0 && Port < 65536". Every failing
// rule yields its own message.
func ExprValidator(rules ...string) ValidatorFunc {
	return func(instance any, name string) error {
		var msgs []string
		for _, rule := range rules {
			out, err := exprlang.Eval(rule, instance)
			if err != nil {
				msgs = append(msgs, fmt.Sprintf("rule %q: %v", rule, err))
				continue
			}
			ok, isBool := out.(bool)
			if !isBool {
				msgs = append(msgs, fmt.Sprintf("rule %q did not evaluate to a boolean", rule))
				continue
			}
			if !ok {
				msgs = append(msgs, fmt.Sprintf("rule %q failed", rule))
			}
		}
		if len(msgs) > 0 {
			return &ValidationError{Name: name, Messages: msgs}
		}
		return nil
	}
}

// TagValidator adapts go-playground/validator struct tags (`validate:"..."`)
// into the pipeline. Passing nil uses a fresh validator instance.
func TagValidator(v *validatorv10.Validate) ValidatorFunc {
	if v == nil {
		v = validatorv10.New()
	}
	return func(instance any, name string) error {
		err := v.Struct(instance)
		if err == nil {
			return nil
		}
		var verrs validatorv10.ValidationErrors
		if !errors.As(err, &verrs) {
			return &ValidationError{Name: name, Messages: []string{err.Error()}}
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("field %s failed rule %q", fe.Field(), fe.ActualTag()))
		}
		return &ValidationError{Name: name, Messages: msgs}
	}
}
