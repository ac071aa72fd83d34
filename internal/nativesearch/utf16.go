package nativesearch

import "unicode/utf16"

// DecodeUTF16Buffer decodes a fixed-size, NUL-padded UTF-16 buffer as filled
// by an OLE DB accessor. Decoding stops at the first NUL.
func DecodeUTF16Buffer(buf []uint16) string {
	for i, c := range buf {
		if c == 0 {
			buf = buf[:i]
			break
		}
	}
	return string(utf16.Decode(buf))
}
