package store

import (
	"context"
	"errors"
	"testing"

	"github.com/corvidlabs/marsha/internal/rerrors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	st, err := NewDatastore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func Test_Grammars_CreateGetByNameDelete(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	g, err := st.Grammars().Create(ctx, "right-recursive", []byte(`start = "S"`))
	require.NoError(t, err)
	assert.Equal(t, "right-recursive", g.Name)

	fetched, err := st.Grammars().GetByName(ctx, "right-recursive")
	require.NoError(t, err)
	assert.Equal(t, g.ID, fetched.ID)
	assert.Equal(t, []byte(`start = "S"`), fetched.Source)

	require.NoError(t, st.Grammars().Delete(ctx, "right-recursive"))

	_, err = st.Grammars().GetByName(ctx, "right-recursive")
	assert.True(t, errors.Is(err, rerrors.ErrNotFound))
}

func Test_Grammars_DeleteMissingIsNotFound(t *testing.T) {
	st := newTestStore(t)
	err := st.Grammars().Delete(context.Background(), "does-not-exist")
	assert.True(t, errors.Is(err, rerrors.ErrNotFound))
}

func Test_Recognitions_CreateGetByID(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec, err := st.Recognitions().Create(ctx, Recognition{
		GrammarName: "S",
		Input:       []string{"a", "a", "a"},
		Accepted:    true,
		Earlemes:    4,
		Snapshot:    ChartSnapshot{EarlemeCount: 4, PartialParseCount: 11, LeoItemCount: 2},
	})
	require.NoError(t, err)
	assert.NotEqual(t, rec.ID.String(), "")

	fetched, err := st.Recognitions().GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "S", fetched.GrammarName)
	assert.Equal(t, []string{"a", "a", "a"}, fetched.Input)
	assert.True(t, fetched.Accepted)
	assert.Equal(t, 4, fetched.Earlemes)
	assert.Equal(t, ChartSnapshot{EarlemeCount: 4, PartialParseCount: 11, LeoItemCount: 2}, fetched.Snapshot)
}

func Test_Recognitions_GetByID_NotFound(t *testing.T) {
	st := newTestStore(t)
	id := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	_, err := st.Recognitions().GetByID(context.Background(), id)
	assert.True(t, errors.Is(err, rerrors.ErrNotFound))
}
