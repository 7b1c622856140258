package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedisDistanceKey_Canonical(t *testing.T) {
	forward := redisDistanceKey("motril, granada", "almería, almería")
	reverse := redisDistanceKey("almería, almería", "motril, granada")
	assert.Equal(t, forward, reverse)
	assert.Equal(t, "destinos:dist:almería, almería|motril, granada", forward)
}
