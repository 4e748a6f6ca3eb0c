package strtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/daqd/pkg/types"
)

func TestIntern_Sequential(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Intern(0, "sensors"))
	require.NoError(t, tbl.Intern(1, "temperature"))
	assert.Equal(t, 2, tbl.Len())

	got, err := tbl.Resolve(1)
	require.NoError(t, err)
	assert.Equal(t, "temperature", got)
}

func TestIntern_OutOfSequence(t *testing.T) {
	tests := []struct {
		name string
		uid  uint32
	}{
		{"skips ahead", 2},
		{"reuses index", 0},
		{"far future", 0xFFFFFFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := New()
			require.NoError(t, tbl.Intern(0, "a"))

			err := tbl.Intern(tt.uid, "b")
			require.ErrorIs(t, err, types.ErrOutOfSequenceID)
			assert.Equal(t, types.KindProtocolViolation, types.KindOf(err))
			assert.Equal(t, 1, tbl.Len())

			got, err := tbl.Resolve(0)
			require.NoError(t, err)
			assert.Equal(t, "a", got, "existing entry must not change")
		})
	}
}

func TestResolve_Unknown(t *testing.T) {
	var tbl Table
	_, err := tbl.Resolve(0)
	require.ErrorIs(t, err, types.ErrUnknownID)

	require.NoError(t, tbl.Intern(0, "x"))
	_, err = tbl.Resolve(1)
	require.ErrorIs(t, err, types.ErrUnknownID)
}

func TestIntern_EmptyTextIsAllowed(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Intern(0, ""))
	got, err := tbl.Resolve(0)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}
