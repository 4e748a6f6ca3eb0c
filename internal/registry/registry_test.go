package registry

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/daqd/internal/strtab"
	"github.com/mesh-intelligence/daqd/internal/wire"
	"github.com/mesh-intelligence/daqd/pkg/types"
)

// newNames interns t0, f0..f{n-1} at uids 0..n.
func newNames(t *testing.T, n int) *strtab.Table {
	t.Helper()
	names := strtab.New()
	require.NoError(t, names.Intern(0, "t0"))
	for i := 0; i < n; i++ {
		require.NoError(t, names.Intern(uint32(i+1), fmt.Sprintf("f%d", i)))
	}
	return names
}

func TestRegisterGet_PreservesFields(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	allTypes := []wire.FieldType{wire.TypeInt, wire.TypeFloat, wire.TypeBool, wire.TypeStr}

	for n := 1; n <= wire.MaxFields; n++ {
		t.Run(fmt.Sprintf("fields=%d", n), func(t *testing.T) {
			names := newNames(t, n)
			d := wire.Descriptor{Name: 0}
			for i := 0; i < n; i++ {
				d.Fields = append(d.Fields, wire.FieldDescriptor{
					Type: allTypes[rng.Intn(len(allTypes))],
					Name: uint32(i + 1),
				})
			}

			reg := New()
			_, err := reg.Register(0, d, names)
			require.NoError(t, err)

			got, err := reg.Get(0)
			require.NoError(t, err)
			require.Len(t, got.Descriptor.Fields, n)
			require.Len(t, got.Table.Columns, n)
			assert.Equal(t, "t0", got.Table.Name)
			for i, f := range got.Descriptor.Fields {
				assert.Equal(t, d.Fields[i], f)
				assert.Equal(t, fmt.Sprintf("f%d", i), got.Table.Columns[i].Name)
				assert.Equal(t, f.Type.SQLType(), got.Table.Columns[i].SQLType)
			}
		})
	}
}

func TestRegister_OutOfOrderLeavesRegistryUnchanged(t *testing.T) {
	names := newNames(t, 1)
	d := wire.Descriptor{Name: 0, Fields: []wire.FieldDescriptor{{Type: wire.TypeInt, Name: 1}}}

	reg := New()
	for _, uid := range []uint32{1, 2, 100, 0xFFFFFFFF} {
		_, err := reg.Register(uid, d, names)
		require.ErrorIs(t, err, types.ErrOutOfSequenceID)
		assert.Equal(t, types.KindProtocolViolation, types.KindOf(err))
		assert.Equal(t, 0, reg.Len())
	}

	_, err := reg.Register(0, d, names)
	require.NoError(t, err)

	_, err = reg.Register(0, d, names)
	require.ErrorIs(t, err, types.ErrOutOfSequenceID, "reusing an index must fail")
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, uint32(1), reg.Next())
}

func TestRegister_CompileFailureLeavesRegistryUnchanged(t *testing.T) {
	names := strtab.New()
	require.NoError(t, names.Intern(0, "t0"))
	d := wire.Descriptor{Name: 0, Fields: []wire.FieldDescriptor{{Type: wire.TypeInt, Name: 5}}}

	reg := New()
	_, err := reg.Register(0, d, names)
	require.ErrorIs(t, err, types.ErrUnknownID)
	assert.Equal(t, 0, reg.Len())
}

func TestGet_UnknownDescriptor(t *testing.T) {
	reg := New()
	_, err := reg.Get(0)
	require.ErrorIs(t, err, types.ErrUnknownDescriptor)
}

func TestRegister_CopiesCallerSlices(t *testing.T) {
	names := newNames(t, 2)
	d := wire.Descriptor{Name: 0, Fields: []wire.FieldDescriptor{
		{Type: wire.TypeInt, Name: 1},
		{Type: wire.TypeBool, Name: 2},
	}}

	reg := New()
	_, err := reg.Register(0, d, names)
	require.NoError(t, err)

	d.Fields[0].Type = wire.TypeStr
	got, err := reg.Get(0)
	require.NoError(t, err)
	assert.Equal(t, wire.TypeInt, got.Descriptor.Fields[0].Type)
}

func TestRegister_CompiledTextIsFixedAtRegistration(t *testing.T) {
	names := newNames(t, 1)
	d := wire.Descriptor{Name: 0, Fields: []wire.FieldDescriptor{{Type: wire.TypeInt, Name: 1}}}

	reg := New()
	e, err := reg.Register(0, d, names)
	require.NoError(t, err)
	before := e.Table

	require.NoError(t, names.Intern(2, "later"))
	got, err := reg.Get(0)
	require.NoError(t, err)
	assert.Equal(t, before.CreateSQL, got.Table.CreateSQL)
	assert.Equal(t, before.InsertSQL, got.Table.InsertSQL)
}

func TestScenario_DescriptorBeforeZero(t *testing.T) {
	names := newNames(t, 1)
	d := wire.Descriptor{Name: 0, Fields: []wire.FieldDescriptor{{Type: wire.TypeInt, Name: 1}}}

	reg := New()
	_, err := reg.Register(1, d, names)
	require.ErrorIs(t, err, types.ErrProtocolViolation)
	assert.Equal(t, 0, reg.Len())
}
