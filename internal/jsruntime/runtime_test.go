package jsruntime

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Simple JS code for basic benchmark
const simpleJS = `
var result = 0;
for (var i = 0; i < 1000; i++) {
	result += i;
}
result.toString();
`

// A small object graph walked recursively, closer to what bootstrap code does
const complexJS = `
var registry = { alpha: { greet: function(n) { return 'hi ' + n; } } };

function describe(obj, depth) {
	var parts = [];
	for (var key in obj) {
		var v = obj[key];
		if (typeof v === 'object' && v !== null && depth < 3) {
			parts.push(key + '{' + describe(v, depth + 1) + '}');
		} else {
			parts.push(key + ':' + typeof v);
		}
	}
	return parts.join(',');
}

describe({ registry: registry, count: 42, name: 'Test' }, 0) + '|' + registry.alpha.greet('go');
`

// eachRuntime runs fn against every backend compiled into the test binary.
// The default build covers v8 and goja; run with -tags use_quickjs to cover
// quickjs and goja.
func eachRuntime(t *testing.T, fn func(t *testing.T, rt JSRuntime)) {
	for _, typ := range Available() {
		t.Run(string(typ), func(t *testing.T) {
			rt, err := New(Options{Type: typ})
			require.NoError(t, err)
			defer rt.Destroy()
			fn(t, rt)
		})
	}
}

func TestRuntimeOutput(t *testing.T) {
	eachRuntime(t, func(t *testing.T, rt JSRuntime) {
		res, err := rt.Execute(complexJS, "complex.js")
		require.NoError(t, err)
		assert.Equal(t, "registry{alpha{greet:function}},count:number,name:string|hi go", res.Text)
		assert.False(t, res.Undefined)
	})
	fmt.Printf("Default runtime: %s, available: %v\n", DefaultRuntimeType(), Available())
}

func TestExecuteUndefined(t *testing.T) {
	eachRuntime(t, func(t *testing.T, rt JSRuntime) {
		res, err := rt.Execute(`var x = 1;`, "undef.js")
		require.NoError(t, err)
		assert.True(t, res.Undefined)
		assert.Equal(t, "", res.Text)

		res, err = rt.Execute(`''`, "empty.js")
		require.NoError(t, err)
		assert.False(t, res.Undefined)
	})
}

func TestExecuteScriptError(t *testing.T) {
	eachRuntime(t, func(t *testing.T, rt JSRuntime) {
		_, err := rt.Execute(`throw new Error('boom')`, "throw.js")
		require.Error(t, err)
		var scriptErr *ScriptError
		require.True(t, errors.As(err, &scriptErr))
		assert.Contains(t, scriptErr.Message, "boom")
		assert.Equal(t, "throw.js", scriptErr.Origin)
	})
}

func TestAssignUsesNativeKeys(t *testing.T) {
	eachRuntime(t, func(t *testing.T, rt JSRuntime) {
		_, err := rt.Execute(`globalThis.bag = {};`, "setup.js")
		require.NoError(t, err)

		key := `we"ird'key`
		require.NoError(t, rt.Assign([]string{"bag", key}, `{n: 7}`, "assign.js"))

		res, err := rt.Execute(`bag["we\"ird'key"].n`, "read.js")
		require.NoError(t, err)
		assert.Equal(t, "7", res.Text)
	})
}

func TestAssignMissingHolder(t *testing.T) {
	eachRuntime(t, func(t *testing.T, rt JSRuntime) {
		err := rt.Assign([]string{"nothing", "here"}, `1`, "assign.js")
		assert.Error(t, err)
		assert.Error(t, rt.Assign(nil, `1`, "assign.js"))
	})
}

func TestBindNativeFunction(t *testing.T) {
	eachRuntime(t, func(t *testing.T, rt JSRuntime) {
		var got []string
		err := rt.Bind([]string{"__echo"}, func(args []string) (string, error) {
			got = args
			return strings.ToUpper(strings.Join(args, "+")), nil
		})
		require.NoError(t, err)

		res, err := rt.Execute(`__echo('a', 1, true)`, "bind.js")
		require.NoError(t, err)
		assert.Equal(t, "A+1+TRUE", res.Text)
		assert.Equal(t, []string{"a", "1", "true"}, got)
	})
}

func TestBindErrorThrows(t *testing.T) {
	eachRuntime(t, func(t *testing.T, rt JSRuntime) {
		require.NoError(t, rt.Bind([]string{"__fail"}, func(args []string) (string, error) {
			return "", errors.New("native failure")
		}))
		res, err := rt.Execute(`var r; try { __fail(); r = 'no'; } catch (e) { r = 'caught'; } r`, "fail.js")
		require.NoError(t, err)
		assert.Equal(t, "caught", res.Text)
	})
}

func TestGCAndDestroyAreSafe(t *testing.T) {
	eachRuntime(t, func(t *testing.T, rt JSRuntime) {
		rt.GC()
		rt.Destroy()
		rt.Destroy()
		_, err := rt.Execute(`1`, "after.js")
		assert.Error(t, err)
	})
}

func TestAssignAndBindSurviveDestroy(t *testing.T) {
	for _, typ := range Available() {
		t.Run(string(typ), func(t *testing.T) {
			for i := 0; i < 3; i++ {
				rt, err := New(Options{Type: typ})
				require.NoError(t, err)
				require.NoError(t, rt.Assign([]string{"pkgs"}, "{}", "pkgs.js"))
				require.NoError(t, rt.Assign([]string{"pkgs", "cfg"}, `{n: 1}`, "cfg.js"))
				require.NoError(t, rt.Assign([]string{"pkgs", "cfg"}, `{n: 2}`, "cfg.js"))
				require.NoError(t, rt.Bind([]string{"pkgs", "echo"}, func(args []string) (string, error) {
					return args[0], nil
				}))
				res, err := rt.Execute(`pkgs.cfg.n + pkgs.echo('!')`, "use.js")
				require.NoError(t, err)
				assert.Equal(t, "2!", res.Text)
				rt.GC()
				rt.Destroy()
			}
		})
	}
}

func TestNewUnknownRuntime(t *testing.T) {
	rt, err := New(Options{Type: "spidermonkey"})
	assert.Nil(t, rt)
	assert.ErrorIs(t, err, ErrBindingUnavailable)
}

func BenchmarkRuntime_Simple(b *testing.B) {
	rt, err := New(Options{})
	if err != nil {
		b.Fatal(err)
	}
	defer rt.Destroy()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := rt.Execute(simpleJS, "simple.js"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRuntime_Complex(b *testing.B) {
	rt, err := New(Options{})
	if err != nil {
		b.Fatal(err)
	}
	defer rt.Destroy()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := rt.Execute(complexJS, "complex.js"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRuntime_Fresh(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rt, err := New(Options{})
		if err != nil {
			b.Fatal(err)
		}
		if _, err := rt.Execute(simpleJS, "simple.js"); err != nil {
			b.Fatal(err)
		}
		rt.Destroy()
	}
}
