// Aggregated GHASH batching: four blocks per modular reduction, using the
// precomputed powers H..H^4 (Jankowski/Laurent aggregated reduction).

package aesgcm

// hashPowers derives the byte-reversed hash subkey and its square, cube and
// fourth power from the natural-order H produced by the block cipher.
func hashPowers(h *[16]byte) (h1, h2, h3, h4 gfElem) {
	h1 = gfLoad(h[:])
	h2 = gfMul(h1, h1)
	h3 = gfMul(h2, h1)
	h4 = gfMul(h3, h1)
	return h1, h2, h3, h4
}

// karatsuba produces the three partial carry-less products of one
// element pair: low halves, high halves, and the cross term
// (h.lo+h.hi)*(x.lo+x.hi).
func karatsuba(h, x gfElem) (lo, hi, mid gfElem) {
	loHi, loLo := clmul64(h.lo, x.lo)
	hiHi, hiLo := clmul64(h.hi, x.hi)
	midHi, midLo := clmul64(h.lo^h.hi, x.lo^x.hi)
	return gfElem{lo: loLo, hi: loHi}, gfElem{lo: hiLo, hi: hiHi}, gfElem{lo: midLo, hi: midHi}
}

// reduce4 folds four consecutive blocks into the accumulator with a single
// reduction:
//
//	acc' = (acc + x3)*h4 + x2*h3 + x1*h2 + x0*h1
//
// x3 is the OLDEST of the four blocks (the prior accumulator folds into it,
// pairing it with the highest power) and x0 the newest. Callers must
// preserve that ordering or the aggregated result diverges from the serial
// one.
func reduce4(h1, h2, h3, h4, x0, x1, x2, x3, acc gfElem) gfElem {
	x3 = x3.xor(acc)

	lo0, hi0, mid0 := karatsuba(h1, x0)
	lo1, hi1, mid1 := karatsuba(h2, x1)
	lo2, hi2, mid2 := karatsuba(h3, x2)
	lo3, hi3, mid3 := karatsuba(h4, x3)

	lo := lo0.xor(lo1).xor(lo2).xor(lo3)
	hi := hi0.xor(hi1).xor(hi2).xor(hi3)

	// Karatsuba: subtract the low and high products from the cross terms
	// to leave the true middle 128 bits.
	mid := mid0.xor(mid1).xor(mid2).xor(mid3).xor(lo).xor(hi)

	return gfReduce(lo.lo, lo.hi^mid.lo, hi.lo^mid.hi, hi.hi)
}

// absorb folds data into the accumulator: whole 64-byte spans go through
// the aggregated reduction, the remainder one block at a time with the
// final short block zero-padded. Used for AAD on both paths and for the
// ciphertext authentication pass on open.
func absorb(acc gfElem, data []byte, h1, h2, h3, h4 gfElem) gfElem {
	rnd := len(data) &^ 63
	for i := 0; i < rnd; i += 64 {
		acc = reduce4(h1, h2, h3, h4,
			gfLoad(data[i+48:]), gfLoad(data[i+32:]),
			gfLoad(data[i+16:]), gfLoad(data[i:]), acc)
	}
	for i := rnd; i < len(data); i += 16 {
		bl := 16
		if i+bl > len(data) {
			bl = len(data) - i
		}
		acc = mulAccum(acc, data[i:i+bl], h1)
	}
	return acc
}
