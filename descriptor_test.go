package confopts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDescribe tests descriptor construction from struct tags
func TestDescribe(t *testing.T) {
	t.Run("ScalarKinds", func(t *testing.T) {
		type cfg struct {
			Host    string        `conf:"host"`
			Port    int           `conf:"port,required"`
			Workers uint          `conf:"workers"`
			Ratio   float64       `conf:"ratio"`
			Debug   bool          `conf:"debug"`
			Timeout time.Duration `conf:"timeout"`
		}
		desc, err := Describe(&cfg{})
		require.NoError(t, err)
		require.Len(t, desc.Fields, 6)

		kinds := map[string]FieldKind{}
		for _, f := range desc.Fields {
			kinds[f.Suffix] = f.Kind
		}
		assert.Equal(t, KindString, kinds["host"])
		assert.Equal(t, KindInt, kinds["port"])
		assert.Equal(t, KindUint, kinds["workers"])
		assert.Equal(t, KindFloat, kinds["ratio"])
		assert.Equal(t, KindBool, kinds["debug"])
		assert.Equal(t, KindDuration, kinds["timeout"])

		assert.True(t, desc.Fields[1].Required)
		assert.False(t, desc.Fields[0].Required)
	})

	t.Run("DefaultSuffixIsFieldName", func(t *testing.T) {
		type cfg struct {
			Host string
		}
		desc, err := Describe(cfg{})
		require.NoError(t, err)
		require.Len(t, desc.Fields, 1)
		assert.Equal(t, "Host", desc.Fields[0].Suffix)
	})

	t.Run("SkippedAndUnexportedFields", func(t *testing.T) {
		type cfg struct {
			Kept    string `conf:"kept"`
			Skipped string `conf:"-"`
			hidden  string
		}
		_ = cfg{hidden: ""}
		desc, err := Describe(&cfg{})
		require.NoError(t, err)
		require.Len(t, desc.Fields, 1)
		assert.Equal(t, "kept", desc.Fields[0].Suffix)
	})

	t.Run("NestedStruct", func(t *testing.T) {
		type tls struct {
			Cert string `conf:"cert"`
		}
		type cfg struct {
			TLS    tls  `conf:"tls"`
			TLSPtr *tls `conf:"tls_opt"`
		}
		desc, err := Describe(&cfg{})
		require.NoError(t, err)
		require.Len(t, desc.Fields, 2)

		assert.Equal(t, KindNested, desc.Fields[0].Kind)
		require.NotNil(t, desc.Fields[0].Elem)
		assert.Equal(t, "cert", desc.Fields[0].Elem.Fields[0].Suffix)

		assert.Equal(t, KindNested, desc.Fields[1].Kind)
		require.NotNil(t, desc.Fields[1].Elem)
	})

	t.Run("RepeatedFields", func(t *testing.T) {
		type endpoint struct {
			URL string `conf:"url"`
		}
		type cfg struct {
			Tags      []string   `conf:"tags"`
			Endpoints []endpoint `conf:"endpoints"`
		}
		desc, err := Describe(&cfg{})
		require.NoError(t, err)

		assert.Equal(t, KindRepeated, desc.Fields[0].Kind)
		assert.Equal(t, KindString, desc.Fields[0].ElemKind)
		assert.Nil(t, desc.Fields[0].Elem)

		assert.Equal(t, KindRepeated, desc.Fields[1].Kind)
		require.NotNil(t, desc.Fields[1].Elem)
	})

	t.Run("UnsupportedTypes", func(t *testing.T) {
		type chanCfg struct {
			C chan int `conf:"c"`
		}
		_, err := Describe(&chanCfg{})
		assert.Error(t, err)

		type mapSliceCfg struct {
			M []map[string]string `conf:"m"`
		}
		_, err = Describe(&mapSliceCfg{})
		assert.Error(t, err)
	})

	t.Run("InvalidTagSuffix", func(t *testing.T) {
		type cfg struct {
			Bad string `conf:"has space"`
		}
		_, err := Describe(&cfg{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrKeyFormat)
	})

	t.Run("NonStructTargets", func(t *testing.T) {
		_, err := Describe(nil)
		assert.Error(t, err)

		_, err = Describe(42)
		assert.Error(t, err)

		s := "x"
		_, err = Describe(&s)
		assert.Error(t, err)
	})
}
