package options

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRasterOptions(t *testing.T) {
	def := NewRasterOptions(nil)
	assert.Equal(t, DefaultSubsampleBits, def.SubsampleBits)
	assert.Equal(t, DefaultPrecisionBits, def.PrecisionBits)
	assert.Equal(t, DefaultLUTCacheSize, def.LUTCacheSize)
	assert.Equal(t, runtime.GOMAXPROCS(0), def.Parallelism)
	assert.Equal(t, DefaultTileSize, def.TileSize)
	assert.False(t, def.Debug)

	got := NewRasterOptions(&RasterOptions{Debug: true, SubsampleBits: 12, LUTCacheSize: -1, TileSize: 64, Parallelism: 2})
	assert.True(t, got.Debug)
	assert.Equal(t, 12, got.SubsampleBits)
	assert.Equal(t, DefaultPrecisionBits, got.PrecisionBits)
	assert.Equal(t, 0, got.LUTCacheSize)
	assert.Equal(t, 64, got.TileSize)
	assert.Equal(t, 2, got.Parallelism)
}
