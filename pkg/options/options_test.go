package options_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/options"
)

func TestOptions_Accessors(t *testing.T) {
	t.Parallel()

	opts := options.New(map[string]any{
		"transport": map[string]any{
			"host":        "smtp.example.com",
			"port":        "587",
			"verify_peer": "false",
			"scopes":      []any{"mail", 42},
			"nothing":     nil,
		},
	})

	assert.Equal(t, "smtp.example.com", opts.String("transport.host"))
	assert.Equal(t, 587, opts.Int("transport.port"))
	assert.False(t, opts.Bool("transport.verify_peer"))
	assert.Equal(t, []string{"mail", "42"}, opts.Strings("transport.scopes"))
	assert.Equal(t, []string{"smtp.example.com"}, opts.Strings("transport.host"))
	assert.Nil(t, opts.Strings("transport.missing"))

	assert.True(t, opts.Has("transport.nothing"))
	assert.False(t, opts.Has("transport.missing"))
	assert.False(t, opts.Has("transport.host.deeper"))
	assert.Equal(t, "", opts.String("transport.missing"))
	assert.Equal(t, 0, opts.Int("transport.host"))
	assert.Nil(t, opts.Map("transport.host"))
	assert.Len(t, opts.Map("transport"), 5)
}

func TestOptions_SetCreatesIntermediateMaps(t *testing.T) {
	t.Parallel()

	opts := options.New(nil)
	opts.Set("transport.dsn", "smtp://localhost:25")
	opts.Set("transport.search.criteria", "ALL")

	assert.Equal(t, "smtp://localhost:25", opts.String("transport.dsn"))
	assert.Equal(t, "ALL", opts.String("transport.search.criteria"))

	opts.Set("strategy", "smtp")
	opts.Set("strategy.name", "overwritten")
	assert.Equal(t, "overwritten", opts.String("strategy.name"))
}

func TestOptions_SubSharesStorage(t *testing.T) {
	t.Parallel()

	opts := options.New(map[string]any{"transport": map[string]any{"host": "a"}})
	sub := opts.Sub("transport")
	sub.Set("host", "b")
	assert.Equal(t, "b", opts.String("transport.host"))

	created := opts.Sub("other")
	created.Set("x", 1)
	assert.Equal(t, 1, opts.Int("other.x"))
}

func TestOptions_AllIsDeepCopy(t *testing.T) {
	t.Parallel()

	opts := options.New(map[string]any{"transport": map[string]any{"host": "a"}})
	all := opts.All()
	all["transport"].(map[string]any)["host"] = "b"

	assert.Equal(t, "a", opts.String("transport.host"))
}

func TestOptions_Decode(t *testing.T) {
	t.Parallel()

	type filters struct {
		Subtype   []string `option:"subtype"`
		Extension []string `option:"extension"`
	}
	type search struct {
		Criteria   string  `option:"criteria"`
		MarkAsSeen bool    `option:"mark_as_seen"`
		Limit      int     `option:"limit"`
		Filters    filters `option:"attachment_filters"`
	}

	opts := options.New(map[string]any{
		"transport": map[string]any{
			"search": map[string]any{
				"criteria":     "UNSEEN",
				"mark_as_seen": "1",
				"limit":        "10",
				"attachment_filters": map[string]any{
					"subtype":   []any{"PDF"},
					"extension": []any{"pdf", "png"},
				},
			},
		},
	})

	var got search
	require.NoError(t, opts.Decode("transport.search", &got))
	assert.Equal(t, search{
		Criteria:   "UNSEEN",
		MarkAsSeen: true,
		Limit:      10,
		Filters:    filters{Subtype: []string{"PDF"}, Extension: []string{"pdf", "png"}},
	}, got)

	var empty search
	require.NoError(t, opts.Decode("transport.missing", &empty))
	assert.Zero(t, empty)

	var wrong struct {
		Limit int `option:"limit"`
	}
	err := options.New(map[string]any{"limit": "many"}).Decode("", &wrong)
	assert.ErrorIs(t, err, options.ErrDecodeFailed)
}

func TestMerge(t *testing.T) {
	t.Parallel()

	base := map[string]any{
		"strategy": "smtp",
		"transport": map[string]any{
			"host":     "smtp.gmail.com",
			"username": "env-user",
		},
	}
	override := map[string]any{
		"transport": map[string]any{
			"host": "mail.example.com",
			"port": 587,
		},
	}

	merged := options.Merge(base, override)
	assert.Equal(t, map[string]any{
		"strategy": "smtp",
		"transport": map[string]any{
			"host":     "mail.example.com",
			"username": "env-user",
			"port":     587,
		},
	}, merged)

	assert.Equal(t, "smtp.gmail.com", base["transport"].(map[string]any)["host"])
	assert.Equal(t, base, options.Merge(base, nil))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "mail.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
strategy: imap
transport:
  host: imap.example.com
  port: 143
  search:
    markAsSeen: true
`), 0o644))

	t.Run("yaml", func(t *testing.T) {
		raw, err := options.LoadFile(yamlPath, "")
		require.NoError(t, err)

		opts := options.New(raw)
		assert.Equal(t, "imap", opts.String("strategy"))
		assert.Equal(t, "imap.example.com", opts.String("transport.host"))
		assert.Equal(t, 143, opts.Int("transport.port"))
		assert.True(t, opts.Bool("transport.search.markasseen"))
	})

	t.Run("env override", func(t *testing.T) {
		t.Setenv("MAILTEST_TRANSPORT_HOST", "override.example.com")

		raw, err := options.LoadFile(yamlPath, "MAILTEST")
		require.NoError(t, err)
		assert.Equal(t, "override.example.com", options.New(raw).String("transport.host"))
	})

	t.Run("json", func(t *testing.T) {
		jsonPath := filepath.Join(dir, "mail.json")
		require.NoError(t, os.WriteFile(jsonPath, []byte(`{"strategy":"smtp","transport":{"port":465}}`), 0o644))

		raw, err := options.LoadFile(jsonPath, "")
		require.NoError(t, err)
		assert.Equal(t, 465, options.New(raw).Int("transport.port"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := options.LoadFile(filepath.Join(dir, "nope.yaml"), "")
		assert.ErrorIs(t, err, options.ErrLoadFailed)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := options.LoadFile("", "")
		assert.ErrorIs(t, err, options.ErrNoFile)
	})
}
