package dct

// ZigzagOrder lists, for each zigzag index 0..63, the corresponding
// (row*N + col) offset into a row-major Block. Index 0 is the DC
// coefficient; indices 1..63 are AC coefficients in increasing frequency.
var ZigzagOrder = [N * N]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// zigzagIndex is the inverse of ZigzagOrder: zigzagIndex[rowMajorOffset] is
// the zigzag index of that position.
var zigzagIndex [N * N]int

func init() {
	for zz, offset := range ZigzagOrder {
		zigzagIndex[offset] = zz
	}
}

// ToZigzag reads b in zigzag order into a flat 64-element array.
func ToZigzag(b *Block) [N * N]float32 {
	var out [N * N]float32
	for zz, offset := range ZigzagOrder {
		out[zz] = b[offset]
	}
	return out
}

// FromZigzag writes a flat zigzag-ordered 64-element array back into a
// Block.
func FromZigzag(zz [N * N]float32) Block {
	var b Block
	for i, offset := range ZigzagOrder {
		b[offset] = zz[i]
	}
	return b
}
