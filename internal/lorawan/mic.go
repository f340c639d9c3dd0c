package lorawan

import "crypto/aes"

func newAESCipher(key [16]byte) (cipherBlock, error) {
	return aes.NewCipher(key[:])
}

// ComputeMIC returns the 4-byte message integrity code for an uplink/
// downlink frame: the first four bytes of AES-CMAC-128(key, msg).
// msg is the caller-assembled B0-prefixed frame, matching the real
// protocol's input to cmac16; this engine only needs the MIC to validate
// OTAA join exchanges and to size frames fed into internal/phy.Airtime, so
// the B0 block construction itself is left to the caller.
func ComputeMIC(key [16]byte, msg []byte) ([4]byte, error) {
	var mic [4]byte
	full, err := cmac(key[:], msg)
	if err != nil {
		return mic, err
	}
	copy(mic[:], full[:4])
	return mic, nil
}

// VerifyMIC recomputes the MIC over msg under key and reports whether it
// matches want.
func VerifyMIC(key [16]byte, msg []byte, want [4]byte) bool {
	got, err := ComputeMIC(key, msg)
	if err != nil {
		return false
	}
	return got == want
}

// JoinRequest is the subset of a LoRaWAN join-request payload this engine
// needs to validate an OTAA exchange and derive session keys.
type JoinRequest struct {
	AppEUI   [8]byte
	DevEUI   [8]byte
	DevNonce [2]byte
}

// Marshal lays out the join-request fields in the order the real MIC
// covers them (AppEUI | DevEUI | DevNonce), for MIC computation.
func (j JoinRequest) Marshal() []byte {
	b := make([]byte, 18)
	copy(b[0:8], j.AppEUI[:])
	copy(b[8:16], j.DevEUI[:])
	copy(b[16:18], j.DevNonce[:])
	return b
}

// JoinAccept bundles the join-accept fields the server returns and the
// session keys it derives for immediate hand-off to the node side.
type JoinAccept struct {
	AppNonce [3]byte
	NetID    [3]byte
	DevAddr  uint32
	Keys     SessionKeys
}

// ProcessJoin validates a join-request's MIC under appKey and, if valid,
// derives the resulting session keys, mirroring the network server's
// side of an OTAA exchange.
func ProcessJoin(appKey [16]byte, req JoinRequest, mic [4]byte, appNonce, netID [3]byte, devAddr uint32) (JoinAccept, bool, error) {
	if !VerifyMIC(appKey, req.Marshal(), mic) {
		return JoinAccept{}, false, nil
	}
	keys, err := DeriveSessionKeys(appKey, appNonce, netID, req.DevNonce)
	if err != nil {
		return JoinAccept{}, false, err
	}
	return JoinAccept{AppNonce: appNonce, NetID: netID, DevAddr: devAddr, Keys: keys}, true, nil
}
