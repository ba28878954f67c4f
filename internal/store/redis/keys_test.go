package redis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyspace(t *testing.T) {
	ks := NewKeyspace("")
	require.Equal(t, "qrforge:qrCodes", ks.Key("qrCodes"))
	require.Equal(t, "qrforge:*", ks.Pattern())

	custom := NewKeyspace(" team: ")
	require.Equal(t, "team:draft", custom.Key("draft"))

	name, err := custom.Extract("team:draft")
	require.NoError(t, err)
	require.Equal(t, "draft", name)

	_, err = custom.Extract("other:draft")
	require.Error(t, err)
	_, err = custom.Extract("team:")
	require.Error(t, err)
}
