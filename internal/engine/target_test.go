package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetSpecResolvePercent(t *testing.T) {
	assert.Equal(t, int64(500_000), ByPercent(50).Resolve(1_000_000))
	assert.Equal(t, int64(750_000), ByPercent(25).Resolve(1_000_000))
	assert.Equal(t, int64(10_000), ByPercent(99).Resolve(1_000_000))
}

func TestTargetSpecResolveBytes(t *testing.T) {
	assert.Equal(t, int64(51_200), ToBytes(51_200).Resolve(1_000_000))
}

func TestTargetSpecValidate(t *testing.T) {
	assert.NoError(t, ByPercent(1).Validate())
	assert.NoError(t, ByPercent(99).Validate())
	assert.NoError(t, ToBytes(1).Validate())

	assert.Error(t, ByPercent(100).Validate())
	assert.Error(t, ByPercent(-5).Validate())
	assert.Error(t, ToBytes(0).Validate())
	assert.Error(t, ToBytes(-1).Validate())
}

func TestTargetSpecString(t *testing.T) {
	assert.Equal(t, "50% reduction", ByPercent(50).String())
	assert.Equal(t, "1024 bytes", ToBytes(1024).String())
}
