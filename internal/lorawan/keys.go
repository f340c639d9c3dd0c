package lorawan

// SessionKeys holds the two 1.0.x session keys derived at OTAA join-accept
// time, per DeriveSessionKeys.
type SessionKeys struct {
	NwkSKey [16]byte
	AppSKey [16]byte
}

// DeriveSessionKeys derives NwkSKey/AppSKey from AppKey and the OTAA join
// nonces, following the 1.0.x message layout:
//
//	NwkSKey = aes128_encrypt(AppKey, 0x01 | AppNonce | NetID | DevNonce | pad16)
//	AppSKey = aes128_encrypt(AppKey, 0x02 | AppNonce | NetID | DevNonce | pad16)
func DeriveSessionKeys(appKey [16]byte, appNonce [3]byte, netID [3]byte, devNonce [2]byte) (SessionKeys, error) {
	msg := func(tag byte) []byte {
		b := make([]byte, 16)
		b[0] = tag
		copy(b[1:4], appNonce[:])
		copy(b[4:7], netID[:])
		copy(b[7:9], devNonce[:])
		return b
	}

	var keys SessionKeys
	var err error
	keys.NwkSKey, err = aesEncryptBlock(appKey, msg(0x01))
	if err != nil {
		return keys, err
	}
	keys.AppSKey, err = aesEncryptBlock(appKey, msg(0x02))
	return keys, err
}

func aesEncryptBlock(key [16]byte, msg []byte) ([16]byte, error) {
	var out [16]byte
	block, err := newAESCipher(key)
	if err != nil {
		return out, err
	}
	block.Encrypt(out[:], msg)
	return out, nil
}
