package netserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArbiterRegisterPromotesEachNewClient(t *testing.T) {
	var a arbiter
	id1 := a.register()
	assert.True(t, a.isOwner(id1))

	id2 := a.register()
	assert.True(t, a.isOwner(id2))
	assert.False(t, a.isOwner(id1))
}

func TestArbiterUnregisterOwnerPromotesMostRecentRemaining(t *testing.T) {
	var a arbiter
	id1 := a.register()
	id2 := a.register()
	id3 := a.register()
	require.True(t, a.isOwner(id3))

	promoted := a.unregister(id3)
	assert.Equal(t, id2, promoted)
	assert.True(t, a.isOwner(id2))

	_ = id1
}

func TestArbiterUnregisterNonOwnerDoesNotChangeCurrent(t *testing.T) {
	var a arbiter
	id1 := a.register()
	id2 := a.register()

	promoted := a.unregister(id1)
	assert.Equal(t, id2, promoted)
	assert.True(t, a.isOwner(id2))
}

func TestArbiterUnregisterLastClientResetsToZero(t *testing.T) {
	var a arbiter
	id1 := a.register()
	promoted := a.unregister(id1)
	assert.Equal(t, uint32(0), promoted)
	assert.True(t, a.threadSetEmpty())
}

func TestArbiterDisconnectOthersOnlyHonoredFromOwner(t *testing.T) {
	var a arbiter
	id1 := a.register()
	id2 := a.register()

	// id1 is no longer owner (id2 is); its request must be rejected.
	assert.False(t, a.requestDisconnectOthers(id1))
	assert.False(t, a.shouldTerminate(id1))

	assert.True(t, a.requestDisconnectOthers(id2))
	assert.True(t, a.shouldTerminate(id1))
	assert.False(t, a.shouldTerminate(id2))
}

func TestArbiterEpochClearsOnceThreadSetEmpties(t *testing.T) {
	var a arbiter
	id1 := a.register()
	require.True(t, a.requestDisconnectOthers(id1))

	a.unregister(id1)
	assert.True(t, a.threadSetEmpty())
	assert.Equal(t, uint32(0), a.epoch)
}
