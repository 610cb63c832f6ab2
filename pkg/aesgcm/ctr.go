// Counter-mode batch encryption for the GCM core.
//
// Blocks are produced eight at a time so the bulk loops always consume
// 128-byte chunks. The counter block is the 96-bit nonce followed by a
// 32-bit block counter, big-endian on the wire and incremented as a native
// integer per lane.

package aesgcm

import "encoding/binary"

// batchBlocks is the batch width of the bulk keystream generator.
const batchBlocks = 8

// batchSize is the byte size of one keystream batch.
const batchSize = batchBlocks * 16

// ctrState is the running GCM counter: J0 with its counter field split out.
type ctrState struct {
	nonce [12]byte
	ctr   uint32
}

// next writes the current counter block into dst and advances the counter.
// Wraparound is the native 32-bit one; the AEAD length limits keep any
// single message from ever wrapping.
func (s *ctrState) next(dst *[16]byte) {
	copy(dst[0:12], s.nonce[:])
	binary.BigEndian.PutUint32(dst[12:16], s.ctr)
	s.ctr++
}

// encrypt8 fills out with eight consecutive keystream blocks.
func encrypt8(rk *[numRoundKeyWords]uint32, s *ctrState, out *[batchSize]byte) {
	var blk [16]byte
	for a := 0; a < batchBlocks; a++ {
		s.next(&blk)
		encryptBlock(rk, (*[16]byte)(out[16*a:16*a+16]), &blk)
	}
}

// encrypt8XOR XORs eight consecutive keystream blocks into in, writing the
// result to out. out and in are 128 bytes each and may be the same buffer.
func encrypt8XOR(rk *[numRoundKeyWords]uint32, s *ctrState, out, in []byte) {
	var blk, ks [16]byte
	for a := 0; a < batchBlocks; a++ {
		s.next(&blk)
		encryptBlock(rk, &ks, &blk)
		for j := 0; j < 16; j++ {
			out[16*a+j] = in[16*a+j] ^ ks[j]
		}
	}
	wipe(ks[:])
}
