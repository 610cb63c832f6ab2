// GCM composition: counter-mode encryption interleaved with GHASH
// absorption, per NIST SP 800-38D with a 96-bit IV and 128-bit tag.
//
// Encryption derives J0 = nonce || 0x00000001 and the tag mask
// T = AES(J0), absorbs the AAD, then walks the plaintext in 128-byte
// chunks: eight counter blocks are encrypted and XORed in, and the eight
// ciphertext blocks feed two aggregated GHASH reductions. The tail uses a
// full 8-block keystream with byte-wise XOR and single-block absorption.
// Decryption authenticates the whole ciphertext first and only generates
// plaintext after the tag verifies.

package aesgcm

import "encoding/binary"

// sealCore encrypts plaintext into ct and writes the 16-byte tag. ct must
// be exactly len(plaintext) bytes and may alias plaintext; the tag buffer
// must not overlap either. Length checks are the callers' responsibility.
func (c *AESGCM) sealCore(ct, tag, nonce, plaintext, aad []byte) {
	var j0, tmask, fb [16]byte

	copy(j0[0:12], nonce)
	binary.BigEndian.PutUint32(j0[12:16], 1)
	encryptBlock(&c.rkeys, &tmask, &j0)

	binary.BigEndian.PutUint64(fb[0:8], uint64(len(aad))*8)
	binary.BigEndian.PutUint64(fb[8:16], uint64(len(plaintext))*8)

	h1, h2, h3, h4 := hashPowers(&c.h)

	var acc gfElem
	acc = absorb(acc, aad, h1, h2, h3, h4)

	ctr := ctrState{ctr: 2}
	copy(ctr.nonce[:], nonce)

	rnd := len(plaintext) &^ (batchSize - 1)
	for i := 0; i < rnd; i += batchSize {
		encrypt8XOR(&c.rkeys, &ctr, ct[i:i+batchSize], plaintext[i:i+batchSize])
		acc = reduce4(h1, h2, h3, h4,
			gfLoad(ct[i+48:]), gfLoad(ct[i+32:]),
			gfLoad(ct[i+16:]), gfLoad(ct[i:]), acc)
		acc = reduce4(h1, h2, h3, h4,
			gfLoad(ct[i+112:]), gfLoad(ct[i+96:]),
			gfLoad(ct[i+80:]), gfLoad(ct[i+64:]), acc)
	}

	for i := rnd; i < len(plaintext); i += batchSize {
		var ks [batchSize]byte
		encrypt8(&c.rkeys, &ctr, &ks)
		mj := len(plaintext) - i
		if mj > batchSize {
			mj = batchSize
		}
		for j := 0; j < mj; j++ {
			ct[i+j] = plaintext[i+j] ^ ks[j]
		}
		for j := 0; j < mj; j += 16 {
			bl := 16
			if j+bl > mj {
				bl = mj - j
			}
			acc = mulAccum(acc, ct[i+j:i+j+bl], h1)
		}
		wipe(ks[:])
	}

	acc = mulAccum(acc, fb[:], h1)

	sum := acc.bytes()
	for i := 0; i < TagSize; i++ {
		tag[i] = tmask[i] ^ sum[i]
	}

	wipe(tmask[:])
	wipe(fb[:])
	wipe(sum[:])
	acc, h1, h2, h3, h4 = gfElem{}, gfElem{}, gfElem{}, gfElem{}, gfElem{}
}

// openCore authenticates data||tag and, only on success, decrypts data into
// plaintext. plaintext must be exactly len(data) bytes and may alias data;
// on authentication failure it is left untouched. data must stay stable for
// the whole call: it is read once to authenticate and once to decrypt.
func (c *AESGCM) openCore(plaintext, nonce, data, tag, aad []byte) error {
	var j0, tmask, fb [16]byte

	copy(j0[0:12], nonce)
	binary.BigEndian.PutUint32(j0[12:16], 1)
	encryptBlock(&c.rkeys, &tmask, &j0)

	binary.BigEndian.PutUint64(fb[0:8], uint64(len(aad))*8)
	binary.BigEndian.PutUint64(fb[8:16], uint64(len(data))*8)

	h1, h2, h3, h4 := hashPowers(&c.h)

	var acc gfElem
	acc = absorb(acc, aad, h1, h2, h3, h4)
	acc = absorb(acc, data, h1, h2, h3, h4)
	acc = mulAccum(acc, fb[:], h1)

	// Constant-time verify: accumulate every byte difference, branch once
	// on the combined result.
	sum := acc.bytes()
	var d byte
	for i := 0; i < TagSize; i++ {
		d |= tag[i] ^ tmask[i] ^ sum[i]
	}
	wipe(tmask[:])
	wipe(fb[:])
	wipe(sum[:])
	acc, h1, h2, h3, h4 = gfElem{}, gfElem{}, gfElem{}, gfElem{}, gfElem{}
	if d != 0 {
		return ErrAuthFailed
	}

	ctr := ctrState{ctr: 2}
	copy(ctr.nonce[:], nonce)

	rnd := len(data) &^ (batchSize - 1)
	for i := 0; i < rnd; i += batchSize {
		encrypt8XOR(&c.rkeys, &ctr, plaintext[i:i+batchSize], data[i:i+batchSize])
	}
	for i := rnd; i < len(data); i += batchSize {
		var ks [batchSize]byte
		encrypt8(&c.rkeys, &ctr, &ks)
		mj := len(data) - i
		if mj > batchSize {
			mj = batchSize
		}
		for j := 0; j < mj; j++ {
			plaintext[i+j] = data[i+j] ^ ks[j]
		}
		wipe(ks[:])
	}
	return nil
}
