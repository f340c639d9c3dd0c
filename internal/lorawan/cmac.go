// Package lorawan implements the mechanical OTAA/MIC obligation from
// spec.md §9: session-key derivation and frame integrity checks, sized and
// shaped like the real protocol so payload lengths feed correctly into
// internal/phy.Airtime, without claiming cryptographic novelty. AES-CMAC
// and the key-derivation message layout follow
// xzhiot-lorawan_server/pkg/lorawan (aes_cmac.go, key_derivation.go),
// rewritten on top of the stdlib crypto/aes and crypto/cipher primitives
// that package itself builds on.
package lorawan

import (
	"crypto/aes"
)

const blockSize = 16

// cmac computes AES-CMAC-128 (RFC 4493) over data under key.
func cmac(key, data []byte) ([16]byte, error) {
	var out [16]byte
	block, err := aes.NewCipher(key)
	if err != nil {
		return out, err
	}

	k1, k2 := cmacSubkeys(block)
	last, complete := cmacLastBlock(data, k1, k2)

	x := make([]byte, blockSize)
	nFull := len(data) / blockSize
	if complete && len(data) > 0 {
		nFull--
	}
	for i := 0; i < nFull; i++ {
		xorInto(x, data[i*blockSize:(i+1)*blockSize])
		block.Encrypt(x, x)
	}
	xorInto(x, last[:])
	block.Encrypt(out[:], x)
	return out, nil
}

func cmacSubkeys(block cipherBlock) (k1, k2 [16]byte) {
	const rb = 0x87
	var zero, l [16]byte
	block.Encrypt(l[:], zero[:])

	k1 = leftShiftOne(l)
	if l[0]&0x80 != 0 {
		k1[15] ^= rb
	}
	k2 = leftShiftOne(k1)
	if k1[0]&0x80 != 0 {
		k2[15] ^= rb
	}
	return
}

// cipherBlock is the subset of cipher.Block cmacSubkeys needs; declared
// locally so this file only imports crypto/aes, not crypto/cipher.
type cipherBlock interface {
	Encrypt(dst, src []byte)
}

func leftShiftOne(b [16]byte) [16]byte {
	var out [16]byte
	var carry byte
	for i := 15; i >= 0; i-- {
		out[i] = b[i]<<1 | carry
		carry = b[i] >> 7
	}
	return out
}

func cmacLastBlock(data []byte, k1, k2 [16]byte) (block [16]byte, complete bool) {
	n := len(data)
	if n == 0 {
		block[0] = 0x80
		xorInto(block[:], k2[:])
		return block, false
	}
	rem := n % blockSize
	if rem == 0 {
		copy(block[:], data[n-blockSize:])
		xorInto(block[:], k1[:])
		return block, true
	}
	copy(block[:], data[n-rem:])
	block[rem] = 0x80
	xorInto(block[:], k2[:])
	return block, false
}

func xorInto(dst, src []byte) {
	for i := range dst {
		if i < len(src) {
			dst[i] ^= src[i]
		}
	}
}
