package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGrantsRoundTrip(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)

	set := NewSet(1300, 1301, 1303, 1200, 1201, 2202)
	sections, areas := EncodeGrants(reg, set)
	require.Equal(t, "1200;1300", sections)
	require.Equal(t, "1201;1301;1303;2202", areas)

	decoded := DecodeGrants(reg, sections, areas)
	require.Equal(t, set, decoded)
}

func TestDecodeGrantsIsOrderIndependent(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)

	a := DecodeGrants(reg, "1300;1200", "1301;1201")
	b := DecodeGrants(reg, "1200;1300", "1201;1301")
	require.Equal(t, a, b)
}

func TestDecodeGrantsDropsJunk(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)

	// Unknown IDs grant nothing, malformed fields are skipped, and the
	// sections/areas split does not matter on decode.
	set := DecodeGrants(reg, "1301; ;xyz;55555", "1300")
	require.Equal(t, NewSet(1301, 1300), set)
}

func TestDecodeGrantsEmpty(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)

	set := DecodeGrants(reg, "", "")
	require.Equal(t, 0, set.Len())
	require.False(t, set.Has(1300))
}
