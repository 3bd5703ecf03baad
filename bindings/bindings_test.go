package bindings_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"golang.org/x/image/math/f32"

	"github.com/mge-engine/reflection"
	"github.com/mge-engine/reflection/bindings"
	"github.com/mge-engine/reflection/config"
	"github.com/mge-engine/reflection/internal/reflectiontest"
	"github.com/mge-engine/reflection/luabind"
)

func bind(t *testing.T, opts bindings.Options) *reflection.Registry {
	t.Helper()
	r := bindings.Register(reflection.NewRegistry(), opts)
	require.NoError(t, r.BindAll(context.Background()))
	return r
}

func TestTypes(t *testing.T) {
	r := bind(t, bindings.Options{})

	sev, err := r.LookupType("mge::log_severity")
	require.NoError(t, err)
	assert.True(t, sev.IsEnum())
	assert.Len(t, sev.EnumValues(), 6)

	for name, fields := range map[string]int{"mge::fvec2": 2, "mge::fvec3": 3, "mge::fvec4": 4} {
		vt, err := r.LookupType(name)
		require.NoError(t, err, name)
		assert.True(t, vt.IsArray(), name)
		assert.Len(t, vt.Fields(), fields, name)
		assert.Len(t, vt.Constructors(), 2, name)
	}

	cfg, err := r.LookupType("mge::configuration")
	require.NoError(t, err)
	overloads, err := cfg.MethodOverloads("value")
	require.NoError(t, err)
	assert.Len(t, overloads, 2)
}

func TestMathFunctions(t *testing.T) {
	r := bind(t, bindings.Options{})

	ctx := reflectiontest.NewCallContext(f32.Vec3{1, 2, 3}, f32.Vec3{4, 5, 6})
	require.NoError(t, r.Call("mge::math::dot", ctx))
	reflectiontest.AssertResult(t, ctx, float32(32))
}

func TestMathRequiresCore(t *testing.T) {
	r := reflection.NewRegistry().
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))).
		AddReflector(bindings.Math())
	require.NoError(t, r.BindAll(context.Background()))

	_, err := r.LookupType("mge::fvec3")
	assert.Error(t, err)
}

func TestScripts(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := bind(t, bindings.Options{
		Logger:        logger,
		Configuration: config.NewConfiguration(map[string]string{"window.title": "demo"}),
	})
	in := luabind.NewInterpreter(r)
	defer in.Close()

	err := in.DoString(context.Background(), `
		local v = mge.fvec3.new(1, 2, 2)
		len = v:length()
		v.x = 3
		x = v.x
		cz = mge.fvec3.new(1, 0, 0):cross(mge.fvec3.new(0, 1, 0)).z
		nl = mge.fvec2.new(3, 4):normalized():length()
		w = mge.fvec4.new(1, 2, 3, 4).w

		local cfg = mge.get_configuration()
		title = cfg:value("window.title")
		fallback = cfg:value("missing", "none")
		has = cfg:contains_key("window.title")

		mge.log(mge.log_severity.WARNING_SEVERITY, "hello from lua")
		mge.log(mge.log_severity.NONE, "dropped")
	`)
	require.NoError(t, err)

	assert.Equal(t, lua.LNumber(3), in.Global("len"))
	assert.Equal(t, lua.LNumber(3), in.Global("x"))
	assert.Equal(t, lua.LNumber(1), in.Global("cz"))
	assert.InDelta(t, 1, float64(in.Global("nl").(lua.LNumber)), 1e-6)
	assert.Equal(t, lua.LNumber(4), in.Global("w"))
	assert.Equal(t, lua.LString("demo"), in.Global("title"))
	assert.Equal(t, lua.LString("none"), in.Global("fallback"))
	assert.Equal(t, lua.LTrue, in.Global("has"))

	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "hello from lua")
	assert.NotContains(t, logs.String(), "dropped")

	err = in.DoString(context.Background(), `mge.get_configuration():value("missing")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `configuration key "missing" not found`)
}

func TestSeverityLevel(t *testing.T) {
	tests := []struct {
		s    bindings.LogSeverity
		want slog.Level
	}{
		{bindings.SeverityError, slog.LevelError},
		{bindings.SeverityWarning | bindings.SeverityInfo, slog.LevelWarn},
		{bindings.SeverityInfo, slog.LevelInfo},
		{bindings.SeverityDebug, slog.LevelDebug},
		{bindings.SeverityAll, slog.LevelError},
	}
	for _, tt := range tests {
		if got := tt.s.Level(); got != tt.want {
			t.Errorf("LogSeverity(%d).Level(): expected %v, got %v", tt.s, tt.want, got)
		}
	}
}
