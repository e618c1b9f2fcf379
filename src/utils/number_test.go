package utils

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 142.5, Round2(142.5))
	assert.Equal(t, 0.05, Round2(0.049999))
	assert.Equal(t, 142.13, Round2(142.125))
	assert.Equal(t, -1.24, Round2(-1.2351))
}

func TestUniformStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		v := Uniform(rng, 0.01, 0.09)
		assert.GreaterOrEqual(t, v, 0.01)
		assert.Less(t, v, 0.09)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, int64(2000), Clamp(int64(1500), 2000, 10000))
	assert.Equal(t, int64(10000), Clamp(int64(12000), 2000, 10000))
	assert.Equal(t, 5.5, Clamp(5.5, 0, 10))
}
