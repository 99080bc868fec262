package pg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOptions_Defaults(t *testing.T) {
	got := Options{}.withDefaults()
	require.Equal(t, Options{MaxConns: 5, MinConns: 0, MaxConnIdleTime: 2 * time.Minute}, got)

	got = Options{MaxConns: 2, MinConns: 4}.withDefaults()
	require.EqualValues(t, 2, got.MaxConns)
	require.EqualValues(t, 1, got.MinConns)
}
