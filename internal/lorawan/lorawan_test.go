package lorawan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAppKey = [16]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}

func TestComputeMICDeterministic(t *testing.T) {
	msg := []byte("join-request-payload")
	m1, err := ComputeMIC(testAppKey, msg)
	require.NoError(t, err)
	m2, err := ComputeMIC(testAppKey, msg)
	require.NoError(t, err)
	assert.Equal(t, m1, m2)
}

func TestVerifyMICRejectsTamperedPayload(t *testing.T) {
	msg := []byte("join-request-payload")
	mic, err := ComputeMIC(testAppKey, msg)
	require.NoError(t, err)
	assert.True(t, VerifyMIC(testAppKey, msg, mic))

	tampered := append([]byte{}, msg...)
	tampered[0] ^= 0xFF
	assert.False(t, VerifyMIC(testAppKey, tampered, mic))
}

func TestDeriveSessionKeysDistinctAndDeterministic(t *testing.T) {
	appNonce := [3]byte{1, 2, 3}
	netID := [3]byte{9, 8, 7}
	devNonce := [2]byte{0xAA, 0xBB}

	k1, err := DeriveSessionKeys(testAppKey, appNonce, netID, devNonce)
	require.NoError(t, err)
	k2, err := DeriveSessionKeys(testAppKey, appNonce, netID, devNonce)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1.NwkSKey, k1.AppSKey)
}

func TestProcessJoinRejectsBadMIC(t *testing.T) {
	req := JoinRequest{DevNonce: [2]byte{1, 2}}
	_, ok, err := ProcessJoin(testAppKey, req, [4]byte{0, 0, 0, 0}, [3]byte{1, 2, 3}, [3]byte{1, 1, 1}, 0x01020304)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProcessJoinAcceptsValidMIC(t *testing.T) {
	req := JoinRequest{DevNonce: [2]byte{1, 2}}
	mic, err := ComputeMIC(testAppKey, req.Marshal())
	require.NoError(t, err)

	accept, ok, err := ProcessJoin(testAppKey, req, mic, [3]byte{1, 2, 3}, [3]byte{1, 1, 1}, 0x01020304)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(0x01020304), accept.DevAddr)
}
