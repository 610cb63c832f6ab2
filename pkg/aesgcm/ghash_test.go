package aesgcm

import "testing"

// The aggregated four-block reduction must agree with serial
// multiply-accumulate for every accumulator and block sequence.
func TestReduce4MatchesSerial(t *testing.T) {
	for seed := byte(1); seed < 20; seed++ {
		blocks := testBlocks(6, seed)
		h1 := gfLoad(blocks[0][:])
		h2 := gfMul(h1, h1)
		h3 := gfMul(h2, h1)
		h4 := gfMul(h3, h1)
		acc := gfLoad(blocks[1][:])

		serial := acc
		for _, blk := range blocks[2:6] {
			serial = mulAccum(serial, blk[:], h1)
		}

		agg := reduce4(h1, h2, h3, h4,
			gfLoad(blocks[5][:]), gfLoad(blocks[4][:]),
			gfLoad(blocks[3][:]), gfLoad(blocks[2][:]), acc)

		if serial != agg {
			t.Fatalf("seed %d: aggregated reduction diverges from serial GHASH", seed)
		}
	}
}

// The H powers feed the aggregated path; check them against the bit-serial
// oracle rather than against gfMul itself.
func TestHashPowersAgainstReference(t *testing.T) {
	var h [16]byte
	copy(h[:], testBlocks(1, 0x5e)[0][:])

	_, h2, h3, h4 := hashPowers(&h)

	want2 := refMul(h, h)
	want3 := refMul(want2, h)
	want4 := refMul(want3, h)

	if h2.bytes() != want2 {
		t.Errorf("H^2 mismatch\ngot:  %x\nwant: %x", h2.bytes(), want2[:])
	}
	if h3.bytes() != want3 {
		t.Errorf("H^3 mismatch\ngot:  %x\nwant: %x", h3.bytes(), want3[:])
	}
	if h4.bytes() != want4 {
		t.Errorf("H^4 mismatch\ngot:  %x\nwant: %x", h4.bytes(), want4[:])
	}
}

// absorb blocks data 64 bytes at a time through the aggregated path; the
// result must not depend on that grouping.
func TestAbsorbMatchesSerial(t *testing.T) {
	h1, h2, h3, h4 := hashPowers(&[16]byte{0xaa, 0x01, 0x3f})

	for _, n := range []int{0, 1, 15, 16, 17, 33, 48, 63, 64, 65, 80, 100, 128, 200, 333} {
		data := make([]byte, n)
		x := byte(n)
		for i := range data {
			x = x*31 + 7
			data[i] = x
		}

		serial := gfElem{}
		for i := 0; i < n; i += 16 {
			bl := 16
			if i+bl > n {
				bl = n - i
			}
			serial = mulAccum(serial, data[i:i+bl], h1)
		}

		if got := absorb(gfElem{}, data, h1, h2, h3, h4); got != serial {
			t.Errorf("length %d: absorb diverges from serial GHASH", n)
		}
	}
}
