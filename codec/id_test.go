package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEscrowIDParseRoundTrip(t *testing.T) {
	id, err := NewEscrowID()
	require.NoError(t, err)

	parsed, err := ParseEscrowID(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestEscrowIDParseRejectsWrongLength(t *testing.T) {
	_, err := ParseEscrowID("abcd")
	require.Error(t, err)
}

func TestEscrowIDJSONRoundTrip(t *testing.T) {
	id, err := NewEscrowID()
	require.NoError(t, err)

	b, err := json.Marshal(id)
	require.NoError(t, err)
	require.Equal(t, `"`+id.String()+`"`, string(b))

	var got EscrowID
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, id, got)
}

func TestHash32JSONRoundTrip(t *testing.T) {
	h := Keccak256([]byte("round trip me"))

	b, err := json.Marshal(h)
	require.NoError(t, err)
	require.Equal(t, `"`+h.String()+`"`, string(b))

	var got Hash32
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, h, got)
}
