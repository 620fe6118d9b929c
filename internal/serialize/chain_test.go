package serialize

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type label string

func (l label) String() string { return "label:" + string(l) }

type explosive struct{}

func (explosive) String() string { panic("boom") }

type badBytes struct{}

func (badBytes) String() string { return string([]byte{0xff, 0xfe}) }

func TestChain(t *testing.T) {
	t.Run("encodable value is stored as is", func(t *testing.T) {
		out := Chain(map[string]any{"lr": 0.01, "layers": []int{1, 2}})
		assert.Equal(t, Stored, out.Kind)
		assert.Equal(t, map[string]any{"lr": 0.01, "layers": []int{1, 2}}, out.Value)
		assert.True(t, out.Ok())
	})

	t.Run("unencodable value falls back to string form", func(t *testing.T) {
		out := Chain(math.NaN())
		assert.Equal(t, StoredAsString, out.Kind)
		assert.Equal(t, "NaN", out.Value)
	})

	t.Run("stringer is used for the string form", func(t *testing.T) {
		out := Chain(map[label]func(){"a": nil})
		assert.Equal(t, StoredAsString, out.Kind)
		assert.Contains(t, out.Value, "label:a")
	})

	t.Run("channel is stored as its string form", func(t *testing.T) {
		out := Chain(make(chan int))
		assert.Equal(t, StoredAsString, out.Kind)
		assert.True(t, strings.HasPrefix(out.Value.(string), "0x"))
	})

	t.Run("panicking string form is omitted", func(t *testing.T) {
		out := Chain(struct{ F func() }{F: func() {}})
		assert.Equal(t, StoredAsString, out.Kind)

		out = Chain(explosiveHolder{})
		assert.Equal(t, Omitted, out.Kind)
		assert.Error(t, out.Err)
		assert.False(t, out.Ok())
	})

	t.Run("invalid utf-8 string form is omitted", func(t *testing.T) {
		out := Chain(badHolder{})
		assert.Equal(t, Omitted, out.Kind)
		assert.ErrorIs(t, out.Err, ErrInvalidUTF8)
	})
}

// explosiveHolder fails JSON encoding and panics when stringified.
type explosiveHolder struct {
	explosive
	C chan int
}

func (explosiveHolder) MarshalJSON() ([]byte, error) { return nil, errors.New("no json") }

type badHolder struct{ badBytes }

func (badHolder) MarshalJSON() ([]byte, error) { return nil, errors.New("no json") }

func TestSkip(t *testing.T) {
	out := Skip()
	assert.Equal(t, Omitted, out.Kind)
	assert.NoError(t, out.Err)
}

func TestStringOf(t *testing.T) {
	s, err := StringOf(label("x"))
	require.NoError(t, err)
	assert.Equal(t, "label:x", s)

	s, err = StringOf(errors.New("bad"))
	require.NoError(t, err)
	assert.Equal(t, "bad", s)

	s, err = StringOf(42)
	require.NoError(t, err)
	assert.Equal(t, "42", s)

	_, err = StringOf(explosive{})
	assert.ErrorContains(t, err, "panic")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "stored-as-string", StoredAsString.String())
	assert.Equal(t, "omitted", Omitted.String())
}

func TestDiagnosticLog(t *testing.T) {
	t.Run("appends one line per omission", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "log.txt")
		l := NewDiagnosticLog(path)
		l.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.Local) }

		l.Omitted("weird", explosive{}, errors.New("cannot\nencode"))
		l.Omitted("other", 1, errors.New("x"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 2)
		assert.True(t, strings.HasPrefix(lines[0], "2024-03-01 12:30:00 - Could not convert weird to JSON."))
		assert.Contains(t, lines[0], "cannot encode")
		assert.Contains(t, lines[0], "Skipping this variable.")
	})

	t.Run("disabled log writes nothing", func(t *testing.T) {
		l := NewDiagnosticLog("")
		assert.False(t, l.Enabled())
		l.Omitted("k", 1, errors.New("x"))

		var nilLog *DiagnosticLog
		nilLog.Omitted("k", 1, errors.New("x"))
		nilLog.Event("ignored")
	})

	t.Run("unwritable path never fails the caller", func(t *testing.T) {
		l := NewDiagnosticLog(filepath.Join(t.TempDir(), "missing-dir", "log.txt"))
		assert.NotPanics(t, func() {
			l.Omitted("k", 1, errors.New("x"))
		})
	})

	t.Run("event lines are timestamped", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "log.txt")
		l := NewDiagnosticLog(path)
		l.Event("Uploading notebook %s", "train.ipynb")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), " - Uploading notebook train.ipynb")
	})
}
