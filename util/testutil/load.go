package testutil

import (
	"testing"

	"github.com/lunfardo314/easyeval"
	"github.com/lunfardo314/easyeval/load"
	"github.com/stretchr/testify/require"
)

// Load reads the source into a block, failing the test on syntax errors
func Load(t *testing.T, src string) easyeval.Value {
	ret, err := load.Load(src)
	require.NoError(t, err)
	return ret
}
