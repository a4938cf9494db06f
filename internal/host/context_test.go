package host

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InstallsBuiltinComponents(t *testing.T) {
	h := New("test")

	for _, scheme := range []string{"log", "direct", "timer", "mock", "seda"} {
		comp, err := h.Component(scheme)
		require.NoError(t, err, scheme)
		assert.Equal(t, scheme, comp.Kind())
	}

	_, err := h.Component("kafka")
	assert.ErrorIs(t, err, ErrComponentNotFound)
}

func TestNewComponent(t *testing.T) {
	h := New("test", WithType("custom", func() Component {
		return NewBasicComponent("custom", map[string]any{"answer": 42})
	}))

	comp, err := h.NewComponent("custom")
	require.NoError(t, err)
	v, ok := comp.Property("answer")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	_, err = h.NewComponent("does.not.Exist")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestBasicComponent_SetProperty(t *testing.T) {
	comp := NewBasicComponent("log", map[string]any{"level": "INFO"})

	require.NoError(t, comp.SetProperty("level", "DEBUG"))
	v, _ := comp.Property("level")
	assert.Equal(t, "DEBUG", v)

	err := comp.SetProperty("colour", "red")
	assert.ErrorIs(t, err, ErrUnknownProperty)
}

func TestFrom_AddsRouteImmediately(t *testing.T) {
	h := New("test")

	r, err := h.From("direct:test")
	require.NoError(t, err)
	r.RouteID("a").SetBody("hello").To("log:out")

	routes := h.Routes()
	require.Len(t, routes, 1)
	assert.Same(t, r, routes[0])
	assert.False(t, routes[0].Registered)
	assert.Equal(t, []string{"direct:test", "log:out"}, r.Endpoints())

	_, err = h.From("no-scheme")
	assert.ErrorIs(t, err, ErrInvalidURI)
}

func TestRegister(t *testing.T) {
	t.Run("generates ids and resolves endpoints", func(t *testing.T) {
		h := New("test")
		r1, _ := h.From("timer:tick")
		r2, _ := h.From("direct:in")
		r2.To("mock:out")

		require.NoError(t, h.Register([]*RouteDefinition{r1, r2}))
		assert.Equal(t, "route1", r1.ID)
		assert.Equal(t, "route2", r2.ID)
		assert.Len(t, h.RegisteredRoutes(), 2)
	})

	t.Run("duplicate id", func(t *testing.T) {
		h := New("test")
		r1, _ := h.From("direct:a")
		r1.RouteID("same")
		r2, _ := h.From("direct:b")
		r2.RouteID("same")

		err := h.Register([]*RouteDefinition{r1, r2})
		assert.ErrorIs(t, err, ErrDuplicateRoute)
		assert.True(t, r1.Registered, "routes before the failure stay registered")
		assert.False(t, r2.Registered)
	})

	t.Run("unknown scheme and bean", func(t *testing.T) {
		h := New("test", WithBean("enricher", struct{}{}))
		r1, _ := h.From("kafka:topic")
		r2, _ := h.From("direct:x")
		r2.Process("missing")
		r3, _ := h.From("direct:y")
		r3.Process("enricher")

		err := h.Register([]*RouteDefinition{r1, r2, r3})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnresolvedEndpoint)
		assert.False(t, r1.Registered)
		assert.False(t, r2.Registered)
		assert.True(t, r3.Registered)
	})
}

type recordingHook struct {
	calls int
	err   error
}

func (h *recordingHook) BeforeStart(ctx context.Context, host *Context) error {
	h.calls++
	return h.err
}

func TestStart(t *testing.T) {
	h := New("test")
	hook := &recordingHook{}
	h.AddStartupHook(hook)

	require.NoError(t, h.Start(context.Background()))
	assert.True(t, h.Started())
	assert.Equal(t, 1, hook.calls)

	assert.ErrorIs(t, h.Start(context.Background()), ErrAlreadyStarted)
	assert.Equal(t, 1, hook.calls)
}

func TestStart_HookFailure(t *testing.T) {
	h := New("test")
	boom := errors.New("boom")
	h.AddStartupHook(&recordingHook{err: boom})

	err := h.Start(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, h.Started())
}
