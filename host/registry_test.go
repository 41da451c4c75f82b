package host_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/compose"
	"github.com/bjaus/compose/host"
)

func noop(kind *compose.Builder) *compose.Callable {
	return compose.Handler(kind, func(ctx *compose.Ctx, _ struct{}) (string, error) {
		return "ok", nil
	})
}

func TestRegisterGuards(t *testing.T) {
	r := host.New()

	require.Error(t, r.Register("", noop(compose.Query()).Public()))
	require.Error(t, r.Register("fn", nil))

	require.NoError(t, r.Register("fn", noop(compose.Query()).Public()))
	assert.Error(t, r.Register("fn", noop(compose.Mutation()).Public()), "names share one namespace")

	_, ok := r.Lookup("fn")
	assert.True(t, ok)
	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestInvokeUnknownName(t *testing.T) {
	r := host.New()
	_, err := r.Invoke(context.Background(), "nope", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestQueryContextIsReadOnly(t *testing.T) {
	store := host.NewMemStore()
	require.NoError(t, store.Put(context.Background(), "greeting", []byte(`"hi"`)))

	r := host.New(host.WithStore(store))

	fn := compose.Handler(compose.Query(), func(ctx *compose.Ctx, _ struct{}) (map[string]bool, error) {
		_, found, err := ctx.Reader().Get(ctx.Context(), "greeting")
		if err != nil {
			return nil, err
		}
		return map[string]bool{
			"found":     found,
			"hasWriter": ctx.Writer() != nil,
		}, nil
	})
	require.NoError(t, r.Register("peek", fn.Internal()))

	out, err := r.Invoke(context.Background(), "peek", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"found": true, "hasWriter": false}`, string(out))
}

func TestMutationContextCanWrite(t *testing.T) {
	store := host.NewMemStore()
	r := host.New(host.WithStore(store))

	fn := compose.Handler(compose.Mutation(), func(ctx *compose.Ctx, args struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}) (bool, error) {
		if err := ctx.Writer().Put(ctx.Context(), args.Key, []byte(args.Value)); err != nil {
			return false, err
		}
		return true, nil
	})
	require.NoError(t, r.Register("set", fn.Internal()))

	_, err := r.Invoke(context.Background(), "set", []byte(`{"key": "color", "value": "teal"}`))
	require.NoError(t, err)

	v, found, err := store.Get(context.Background(), "color")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("teal"), v)
}

type recordingScheduler struct {
	scheduled []string
}

func (s *recordingScheduler) Schedule(_ context.Context, name string, _ []byte) error {
	s.scheduled = append(s.scheduled, name)
	return nil
}

func TestActionContextSchedulesAndRuns(t *testing.T) {
	sched := &recordingScheduler{}
	r := host.New(host.WithScheduler(sched))

	inner := compose.Handler(compose.Query(), func(ctx *compose.Ctx, _ struct{}) (int, error) {
		return 41, nil
	})
	require.NoError(t, r.Register("count", inner.Internal()))

	action := compose.Handler(compose.Action(), func(ctx *compose.Ctx, _ struct{}) (int, error) {
		if err := ctx.Scheduler().Schedule(ctx.Context(), "cleanup", nil); err != nil {
			return 0, err
		}
		raw, err := ctx.Runner().Run(ctx.Context(), "count", nil)
		if err != nil {
			return 0, err
		}
		var n int
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, err
		}
		return n + 1, nil
	})
	require.NoError(t, r.Register("bump", action.Public()))

	out, err := r.Invoke(context.Background(), "bump", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `42`, string(out))
	assert.Equal(t, []string{"cleanup"}, sched.scheduled)
}

func TestHooks(t *testing.T) {
	type ctxKey struct{}
	var (
		invoked   []string
		succeeded []string
		failed    []string
		sawValue  bool
	)

	r := host.New(
		host.WithOnInvoke(func(ctx context.Context, kind compose.Kind, name string) context.Context {
			invoked = append(invoked, name)
			return context.WithValue(ctx, ctxKey{}, "traced")
		}),
		host.WithOnSuccess(func(ctx context.Context, kind compose.Kind, name string, d time.Duration) {
			succeeded = append(succeeded, name)
			sawValue = ctx.Value(ctxKey{}) == "traced"
		}),
		host.WithOnFailure(func(ctx context.Context, kind compose.Kind, name string, err error, d time.Duration) {
			failed = append(failed, name)
		}),
	)

	good := compose.Handler(compose.Query(), func(ctx *compose.Ctx, _ struct{}) (string, error) {
		return "ok", nil
	})
	bad := compose.Handler(compose.Query(), func(ctx *compose.Ctx, _ struct{}) (string, error) {
		return "", errors.New("nope")
	})
	require.NoError(t, r.Register("good", good.Internal()))
	require.NoError(t, r.Register("bad", bad.Internal()))

	_, err := r.Invoke(context.Background(), "good", nil)
	require.NoError(t, err)
	_, err = r.Invoke(context.Background(), "bad", nil)
	require.Error(t, err)

	assert.Equal(t, []string{"good", "bad"}, invoked)
	assert.Equal(t, []string{"good"}, succeeded)
	assert.Equal(t, []string{"bad"}, failed)
	assert.True(t, sawValue, "context from OnInvoke reaches later hooks")
}

func TestFunctionNameTagIsSet(t *testing.T) {
	r := host.New()
	fn := compose.Handler(compose.Query(), func(ctx *compose.Ctx, _ struct{}) (string, error) {
		return compose.FunctionName().GetOrDefault(ctx, "anonymous"), nil
	})
	require.NoError(t, r.Register("whoami", fn.Internal()))

	out, err := r.Invoke(context.Background(), "whoami", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `"whoami"`, string(out))
}

func TestInvokeAll(t *testing.T) {
	r := host.New()

	double := compose.Handler(compose.Query(), func(ctx *compose.Ctx, args struct {
		N int `json:"n"`
	}) (int, error) {
		return args.N * 2, nil
	})
	fail := compose.Handler(compose.Query(), func(ctx *compose.Ctx, _ struct{}) (int, error) {
		return 0, errors.New("broken")
	})
	require.NoError(t, r.Register("double", double.Internal()))
	require.NoError(t, r.Register("fail", fail.Internal()))

	t.Run("results in call order", func(t *testing.T) {
		out, err := r.InvokeAll(context.Background(), []host.Call{
			{Name: "double", Args: []byte(`{"n": 1}`)},
			{Name: "double", Args: []byte(`{"n": 2}`)},
			{Name: "double", Args: []byte(`{"n": 3}`)},
		})
		require.NoError(t, err)
		require.Len(t, out, 3)
		assert.JSONEq(t, `2`, string(out[0]))
		assert.JSONEq(t, `4`, string(out[1]))
		assert.JSONEq(t, `6`, string(out[2]))
	})

	t.Run("first error wins", func(t *testing.T) {
		_, err := r.InvokeAll(context.Background(), []host.Call{
			{Name: "double", Args: []byte(`{"n": 1}`)},
			{Name: "fail"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fail")
	})
}

func TestMemStore(t *testing.T) {
	ctx := context.Background()
	s := host.NewMemStore()

	_, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Put(ctx, "k", []byte("v1")))
	v, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("v1"), v)

	// Returned slice is a copy.
	v[0] = 'x'
	v2, _, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v2)

	require.NoError(t, s.Delete(ctx, "k"))
	_, found, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}
