package confopts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type limitsCfg struct {
	Name    string
	Port    int
	Level   string
	Ratio   float64
	Nested  struct{ Depth int }
	Pointer *struct{ Depth int }
}

// TestConstraints tests the data-described constraint checker
func TestConstraints(t *testing.T) {
	base := func() *limitsCfg {
		return &limitsCfg{Name: "svc", Port: 8080, Level: "info", Ratio: 0.5}
	}

	t.Run("AllPass", func(t *testing.T) {
		v := Constraints(
			Constraint{Field: "Name", Rule: RuleNonZero},
			Constraint{Field: "Port", Rule: RuleMin, Param: "1024"},
			Constraint{Field: "Port", Rule: RuleMax, Param: "65535"},
			Constraint{Field: "Level", Rule: RuleOneOf, Param: "debug, info, warn, error"},
			Constraint{Field: "Name", Rule: RulePattern, Param: `^[a-z]+$`},
		)
		assert.NoError(t, v(base(), "main"))
	})

	t.Run("FailuresAggregate", func(t *testing.T) {
		cfg := base()
		cfg.Name = ""
		cfg.Port = 80
		cfg.Level = "loud"

		v := Constraints(
			Constraint{Field: "Name", Rule: RuleNonZero},
			Constraint{Field: "Port", Rule: RuleMin, Param: "1024"},
			Constraint{Field: "Level", Rule: RuleOneOf, Param: "debug,info,warn,error"},
		)
		err := v(cfg, "main")
		require.Error(t, err)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "main", ve.Name)
		assert.Len(t, ve.Messages, 3)
	})

	t.Run("DottedFieldPath", func(t *testing.T) {
		cfg := base()
		cfg.Nested.Depth = 3

		v := Constraints(Constraint{Field: "Nested.Depth", Rule: RuleMin, Param: "1"})
		assert.NoError(t, v(cfg, ""))

		v = Constraints(Constraint{Field: "Nested.Depth", Rule: RuleMax, Param: "2"})
		assert.Error(t, v(cfg, ""))
	})

	t.Run("NilPointerPath", func(t *testing.T) {
		v := Constraints(Constraint{Field: "Pointer.Depth", Rule: RuleNonZero})
		err := v(base(), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nil pointer")
	})

	t.Run("UnknownField", func(t *testing.T) {
		v := Constraints(Constraint{Field: "Missing", Rule: RuleNonZero})
		err := v(base(), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `no field "Missing"`)
	})

	t.Run("BadPatternReportsPerRun", func(t *testing.T) {
		v := Constraints(Constraint{Field: "Name", Rule: RulePattern, Param: `([`})
		err := v(base(), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid pattern")
	})

	t.Run("NonNumericMinMax", func(t *testing.T) {
		v := Constraints(Constraint{Field: "Name", Rule: RuleMin, Param: "1"})
		err := v(base(), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not numeric")
	})
}

// TestExprValidator tests expression-rule validation
func TestExprValidator(t *testing.T) {
	cfg := &limitsCfg{Name: "svc", Port: 8080, Ratio: 0.5}

	t.Run("Pass", func(t *testing.T) {
		v := ExprValidator("Port > 1024 && Port < 65536", "Ratio <= 1.0")
		assert.NoError(t, v(cfg, ""))
	})

	t.Run("FailingRulesAggregate", func(t *testing.T) {
		v := ExprValidator("Port > 9000", `Name == "other"`)
		err := v(cfg, "web")
		require.Error(t, err)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Len(t, ve.Messages, 2)
	})

	t.Run("NonBooleanRule", func(t *testing.T) {
		v := ExprValidator("Port + 1")
		err := v(cfg, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "did not evaluate to a boolean")
	})

	t.Run("EvaluationError", func(t *testing.T) {
		v := ExprValidator("Unknown > 1")
		assert.Error(t, v(cfg, ""))
	})
}

// TestTagValidator tests go-playground/validator integration
func TestTagValidator(t *testing.T) {
	type cfg struct {
		Host string `validate:"required,hostname"`
		Port int    `validate:"gte=1,lte=65535"`
	}

	t.Run("Pass", func(t *testing.T) {
		v := TagValidator(nil)
		assert.NoError(t, v(&cfg{Host: "example.com", Port: 443}, ""))
	})

	t.Run("PerFieldMessages", func(t *testing.T) {
		v := TagValidator(nil)
		err := v(&cfg{Host: "", Port: 0}, "api")
		require.Error(t, err)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "api", ve.Name)
		assert.Len(t, ve.Messages, 2)
		assert.Contains(t, ve.Messages[0], "Host")
	})
}

// TestValidatorChain tests aggregation across a chain
func TestValidatorChain(t *testing.T) {
	t.Run("AllRunAndFold", func(t *testing.T) {
		plain := func(instance any, name string) error {
			return errors.New("plain failure")
		}
		structured := Constraints(Constraint{Field: "Port", Rule: RuleMin, Param: "9000"})

		err := runValidators(
			[]ValidatorFunc{plain, structured},
			&limitsCfg{Port: 8080}, "chained",
		)
		require.Error(t, err)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "chained", ve.Name)
		// Nested ValidationErrors flatten into the outer message list.
		assert.Len(t, ve.Messages, 2)
	})

	t.Run("EmptyChainPasses", func(t *testing.T) {
		assert.NoError(t, runValidators(nil, &limitsCfg{}, ""))
	})
}
