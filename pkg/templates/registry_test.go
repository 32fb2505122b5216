package templates_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailqueue/pkg/templates"
)

func staticRender(subject string) templates.RenderFunc {
	return func(ctx context.Context, vars templates.Vars) (templates.Content, error) {
		return templates.Content{Subject: subject, HTML: "<p>" + vars.String("x") + "</p>", Text: vars.String("x")}, nil
	}
}

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	t.Run("valid entries", func(t *testing.T) {
		t.Parallel()

		reg, err := templates.NewRegistry(
			templates.Entry{Name: "b", Render: staticRender("B")},
			templates.Entry{Name: "a", Render: staticRender("A")},
		)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, reg.Names())
		assert.True(t, reg.Has("a"))
		assert.False(t, reg.Has("c"))
	})

	t.Run("duplicate name", func(t *testing.T) {
		t.Parallel()

		_, err := templates.NewRegistry(
			templates.Entry{Name: "a", Render: staticRender("A")},
			templates.Entry{Name: "a", Render: staticRender("B")},
		)
		assert.ErrorIs(t, err, templates.ErrDuplicateTemplate)
	})

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()

		_, err := templates.NewRegistry(templates.Entry{Name: "  ", Render: staticRender("A")})
		assert.ErrorIs(t, err, templates.ErrEmptyTemplateName)
	})

	t.Run("nil render func", func(t *testing.T) {
		t.Parallel()

		_, err := templates.NewRegistry(templates.Entry{Name: "a"})
		assert.ErrorIs(t, err, templates.ErrNilRenderFunc)
	})

	t.Run("must panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			templates.MustNewRegistry(templates.Entry{Name: ""})
		})
	})
}

func TestRegistry_Render(t *testing.T) {
	t.Parallel()

	reg := templates.MustNewRegistry(templates.Entry{Name: "hello", Render: staticRender("Hello")})

	t.Run("known template", func(t *testing.T) {
		t.Parallel()

		content, err := reg.Render(context.Background(), "hello", templates.Vars{"x": 42})
		require.NoError(t, err)
		assert.Equal(t, "Hello", content.Subject)
		assert.Equal(t, "<p>42</p>", content.HTML)
		assert.Equal(t, "42", content.Text)
	})

	t.Run("nil vars", func(t *testing.T) {
		t.Parallel()

		content, err := reg.Render(context.Background(), "hello", nil)
		require.NoError(t, err)
		assert.Equal(t, "<p></p>", content.HTML)
	})

	t.Run("unknown template", func(t *testing.T) {
		t.Parallel()

		_, err := reg.Render(context.Background(), "missing", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, templates.ErrTemplateNotFound)
		assert.Equal(t, "template not found: missing", err.Error())
	})

	t.Run("render error is wrapped", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		reg := templates.MustNewRegistry(templates.Entry{
			Name: "broken",
			Render: func(ctx context.Context, vars templates.Vars) (templates.Content, error) {
				return templates.Content{}, boom
			},
		})

		_, err := reg.Render(context.Background(), "broken", nil)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "render broken")
	})
}

func TestVars(t *testing.T) {
	t.Parallel()

	vars := templates.Vars{
		"name":   "  ada  ",
		"count":  3,
		"active": true,
		"nil":    nil,
	}

	assert.Equal(t, "ada", vars.String("name"))
	assert.Equal(t, "3", vars.String("count"))
	assert.Equal(t, "true", vars.String("active"))
	assert.Equal(t, "", vars.String("nil"))
	assert.Equal(t, "", vars.String("absent"))
	assert.Equal(t, "fallback", vars.StringOr("absent", "fallback"))

	_, err := vars.Require("absent")
	assert.ErrorIs(t, err, templates.ErrMissingVariable)
	v, err := vars.Require("name")
	require.NoError(t, err)
	assert.Equal(t, "ada", v)
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"ada lovelace", "Ada Lovelace"},
		{"  grace   HOPPER ", "Grace Hopper"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, templates.DisplayName(tt.in))
		})
	}
}
