package utils

import "d2sedit/types"

// Checksum computes the savefile checksum over a whole file image.
//
// It's a rolling hash: shift left, add the byte, and add 1 more if the old value was negative
// (which amounts to a 32-bit rotate, plus the byte).  The checksum's own 4 bytes count as zeroes,
// so it doesn't matter what they were before.
func Checksum(image []byte) int32 {
	cksum := int32(0)
	for i, b := range image {
		if i >= types.OFFSET_CHECKSUM && i < types.OFFSET_CHECKSUM+types.CHECKSUM_LENGTH {
			b = 0
		}
		carry := int32(0)
		if cksum < 0 {
			carry = 1
		}
		cksum = (cksum << 1) + int32(b) + carry
	}
	return cksum
}

// Fix_checksum recomputes the checksum and writes it into the image.
func Fix_checksum(image []byte) int32 {
	cksum := Checksum(image)
	types.Header(image).Set_checksum(cksum)
	return cksum
}
