package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstore/internal/domain"
	"docstore/internal/repository/memory"
	"docstore/internal/schema"
	"docstore/internal/uow"
)

func newStore(t *testing.T) (*memory.Store, *schema.Registry) {
	t.Helper()
	reg, err := domain.NewRegistry()
	require.NoError(t, err)
	return memory.New(reg), reg
}

func insertGroup(reg *schema.Registry, name string) uow.Write {
	return uow.Write{
		Kind:      reg.MustLookup(domain.KindGroups),
		Op:        uow.OpInsert,
		Values:    map[string]any{"Name": name},
		Returning: []string{"Id"},
	}
}

func TestStore_InsertAssignsSequence(t *testing.T) {
	s, reg := newStore(t)
	s.SetSequence(domain.KindGroups, 41)

	applied, err := s.Apply(context.Background(), uow.Batch{Writes: []uow.Write{
		insertGroup(reg, "finance"),
		insertGroup(reg, "legal"),
	}})
	require.NoError(t, err)
	require.Len(t, applied.Generated, 2)
	assert.Equal(t, int64(42), applied.Generated[0]["Id"])
	assert.Equal(t, int64(43), applied.Generated[1]["Id"])

	row, ok := s.Find(domain.KindGroups, int64(42))
	require.True(t, ok)
	assert.Equal(t, "finance", row["Name"])
	assert.Equal(t, 2, s.Count(domain.KindGroups))
}

func TestStore_UpdateAndDelete(t *testing.T) {
	s, reg := newStore(t)
	ctx := context.Background()
	_, err := s.Apply(ctx, uow.Batch{Writes: []uow.Write{insertGroup(reg, "finance")}})
	require.NoError(t, err)

	kind := reg.MustLookup(domain.KindGroups)
	_, err = s.Apply(ctx, uow.Batch{Writes: []uow.Write{{
		Kind: kind, Op: uow.OpUpdate,
		Key:    map[string]any{"Id": int64(1)},
		Values: map[string]any{"Name": "treasury"},
	}}})
	require.NoError(t, err)
	row, _ := s.Find(domain.KindGroups, int64(1))
	assert.Equal(t, "treasury", row["Name"])

	_, err = s.Apply(ctx, uow.Batch{Writes: []uow.Write{{Kind: kind, Op: uow.OpDelete, Key: map[string]any{"Id": int64(1)}}}})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count(domain.KindGroups))
}

func TestStore_MissingRowConflicts(t *testing.T) {
	s, reg := newStore(t)
	kind := reg.MustLookup(domain.KindGroups)

	_, err := s.Apply(context.Background(), uow.Batch{Writes: []uow.Write{{
		Kind: kind, Op: uow.OpUpdate,
		Key:    map[string]any{"Id": int64(9)},
		Values: map[string]any{"Name": "x"},
	}}})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStore_FailWhenRollsBackWholeBatch(t *testing.T) {
	s, reg := newStore(t)
	boom := errors.New("disk full")
	s.FailWhen(func(w uow.Write) error {
		if w.Values["Name"] == "legal" {
			return boom
		}
		return nil
	})

	_, err := s.Apply(context.Background(), uow.Batch{Writes: []uow.Write{
		insertGroup(reg, "finance"),
		insertGroup(reg, "legal"),
	}})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, s.Count(domain.KindGroups))
}

func TestStore_FailNextQueue(t *testing.T) {
	s, reg := newStore(t)
	boom := errors.New("connection reset")
	s.FailNext(nil, boom)
	ctx := context.Background()

	_, err := s.Apply(ctx, uow.Batch{Writes: []uow.Write{insertGroup(reg, "finance")}})
	require.NoError(t, err)

	_, err = s.Apply(ctx, uow.Batch{Writes: []uow.Write{insertGroup(reg, "legal")}})
	require.ErrorIs(t, err, boom)

	_, err = s.Apply(ctx, uow.Batch{Writes: []uow.Write{insertGroup(reg, "hr")}})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count(domain.KindGroups))
}

func TestStore_CancelledContext(t *testing.T) {
	s, reg := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Apply(ctx, uow.Batch{Writes: []uow.Write{insertGroup(reg, "finance")}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, s.Count(domain.KindGroups))
}
