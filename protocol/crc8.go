package protocol

// crc8Poly is the reflected Maxim/iButton 1-Wire polynomial (x^8 + x^5 + x^4 + 1)
const crc8Poly = 0x8C

// CRC8 calculates the Maxim/iButton CRC-8 prescribed by the RepRap S3G protocol.
// Bits are processed lsb-first with a zero seed.
func CRC8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ crc8Poly
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
