package reassembly6

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAddrIsDeterministic(t *testing.T) {
	var a [16]byte
	a[15] = 1 // ::1
	h1 := hashAddr(a)
	h2 := hashAddr(a)
	assert.Equal(t, h1, h2)
}

func TestHashAddrDiffersAcrossAddresses(t *testing.T) {
	var a, b [16]byte
	a[15] = 1 // ::1
	b[15] = 2 // ::2
	assert.NotEqual(t, hashAddr(a), hashAddr(b))
}

func TestSourceTableFindOrCreate(t *testing.T) {
	tbl := newSourceTable(16)
	var addr [16]byte
	addr[15] = 1

	s1, created1 := tbl.findOrCreate(addr)
	require.True(t, created1)
	s2, created2 := tbl.findOrCreate(addr)
	assert.False(t, created2)
	assert.Same(t, s1, s2)
}

func TestSourceTableDeleteUnlinksWithinBucket(t *testing.T) {
	tbl := newSourceTable(1) // force collisions into a single bucket

	var a1, a2, a3 [16]byte
	a1[15], a2[15], a3[15] = 1, 2, 3
	s1, _ := tbl.findOrCreate(a1)
	s2, _ := tbl.findOrCreate(a2)
	s3, _ := tbl.findOrCreate(a3)

	tbl.delete(s2)

	assert.Same(t, s1, tbl.find(a1))
	assert.Nil(t, tbl.find(a2))
	assert.Same(t, s3, tbl.find(a3))
}
