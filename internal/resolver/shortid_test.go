package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	ids []string
	err error
}

func (s *memStore) RecordExists(_ context.Context, id string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for _, v := range s.ids {
		if v == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ScanRecordIDs(context.Context) ([]string, error) {
	return s.ids, s.err
}

func TestResolveRecordID(t *testing.T) {
	ctx := context.Background()
	a := "d/1a2b3c4d-0000-4000-8000-000000000001"
	b := "d/1a2b3c4d-0000-4000-8000-000000000002"
	c := "d/9f8e7d6c-0000-4000-8000-000000000003"
	store := &memStore{ids: []string{a, b, c}}

	t.Run("full id that exists", func(t *testing.T) {
		id, err := ResolveRecordID(ctx, store, c)
		require.NoError(t, err)
		assert.Equal(t, c, id)
	})

	t.Run("full id that does not exist", func(t *testing.T) {
		_, err := ResolveRecordID(ctx, store, "d/00000000-0000-4000-8000-000000000000")
		assert.True(t, IsNotFoundError(err))
	})

	t.Run("unique prefix without d/", func(t *testing.T) {
		id, err := ResolveRecordID(ctx, store, "9f8e7d")
		require.NoError(t, err)
		assert.Equal(t, c, id)
	})

	t.Run("unique prefix with d/", func(t *testing.T) {
		id, err := ResolveRecordID(ctx, store, "d/9f8e7d6c")
		require.NoError(t, err)
		assert.Equal(t, c, id)
	})

	t.Run("ambiguous prefix", func(t *testing.T) {
		_, err := ResolveRecordID(ctx, store, "1a2b3c")
		require.True(t, IsAmbiguousError(err))
		assert.Equal(t, []string{a, b}, err.(*AmbiguousError).Matches)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := ResolveRecordID(ctx, store, "ffffff")
		assert.True(t, IsNotFoundError(err))
	})

	t.Run("too short", func(t *testing.T) {
		_, err := ResolveRecordID(ctx, store, "d/1a2")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 6 characters")
	})

	t.Run("store failure", func(t *testing.T) {
		_, err := ResolveRecordID(ctx, &memStore{err: errors.New("down")}, "1a2b3c")
		assert.ErrorContains(t, err, "failed to search for record")
	})
}

func TestFormatAmbiguousError(t *testing.T) {
	var matches []string
	for i := 0; i < 12; i++ {
		matches = append(matches, fmt.Sprintf("d/abcdef-%02d", i))
	}

	msg := FormatAmbiguousError(&AmbiguousError{ShortID: "abcdef", Matches: matches})
	assert.Contains(t, msg, "matches 12 records")
	assert.Contains(t, msg, "d/abcdef-09")
	assert.NotContains(t, msg, "d/abcdef-10")
	assert.Contains(t, msg, "...and 2 more")
	assert.True(t, strings.HasSuffix(msg, "uniquely identify the record."))
}
