package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tonRawAddr = "0:83dfd552e63729b472fcbcc8c45ebcc6691702558b68ec7527e1ba403a0f31a8"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "hex lower", in: "0xab", want: "0xab"},
		{name: "hex upper with zeros", in: "0x00AB", want: "0xab"},
		{name: "hex upper prefix", in: "0X0000Ab12", want: "0xab12"},
		{name: "hex zero", in: "0x0000", want: "0x0"},
		{name: "surrounding space", in: "  0xAB  ", want: "0xab"},
		{name: "ton raw upper", in: "0:83DFD552E63729B472FCBCC8C45EBCC6691702558B68EC7527E1BA403A0F31A8", want: tonRawAddr},
		{name: "ton raw", in: tonRawAddr, want: tonRawAddr},
		{name: "opaque", in: "ABC", want: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, in := range []string{"0x00AB", "abc", tonRawAddr, "0x0"} {
		once, err := Normalize(in)
		require.NoError(t, err)
		twice, err := Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, in)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	_, err := Normalize("   ")
	assert.ErrorIs(t, err, ErrEmptyAddress)
}

func TestIsHex(t *testing.T) {
	assert.True(t, IsHex("0xab"))
	assert.False(t, IsHex("abc"))
	assert.False(t, IsHex(tonRawAddr))
}
