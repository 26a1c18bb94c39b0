package stack

import "fmt"

// base85 codec using the RFC 1924 alphabet shared by git binary patches
// and mercurial. Values are packed big-endian, four bytes to five
// characters, with short trailing groups truncated rather than padded.

const base85Alphabet = "0123456789" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz" +
	"!#$%&()*+-;<=>?@^_`{|}~"

var base85Decode [256]int8

func init() {
	for i := range base85Decode {
		base85Decode[i] = -1
	}
	for i := 0; i < len(base85Alphabet); i++ {
		base85Decode[base85Alphabet[i]] = int8(i)
	}
}

// EncodeBase85 encodes raw bytes to the base85 wire form
func EncodeBase85(data []byte) string {
	out := make([]byte, 0, (len(data)+3)/4*5)
	for i := 0; i < len(data); i += 4 {
		var acc uint32
		n := len(data) - i
		if n > 4 {
			n = 4
		}
		for j := 0; j < 4; j++ {
			acc <<= 8
			if j < n {
				acc |= uint32(data[i+j])
			}
		}
		var group [5]byte
		for j := 4; j >= 0; j-- {
			group[j] = base85Alphabet[acc%85]
			acc /= 85
		}
		out = append(out, group[:n+1]...)
	}
	return string(out)
}

// DecodeBase85 decodes the base85 wire form back to raw bytes
func DecodeBase85(text string) ([]byte, error) {
	out := make([]byte, 0, len(text)/5*4+4)
	for i := 0; i < len(text); i += 5 {
		n := len(text) - i
		if n > 5 {
			n = 5
		}
		if n == 1 {
			return nil, fmt.Errorf("base85 data truncated")
		}
		var acc uint32
		for j := 0; j < 5; j++ {
			c := byte('~')
			if j < n {
				c = text[i+j]
			}
			v := base85Decode[c]
			if v < 0 {
				return nil, fmt.Errorf("invalid base85 character %q", c)
			}
			if acc > (0xffffffff-uint32(v))/85 {
				return nil, fmt.Errorf("base85 group overflow")
			}
			acc = acc*85 + uint32(v)
		}
		var group [4]byte
		for j := 3; j >= 0; j-- {
			group[j] = byte(acc)
			acc >>= 8
		}
		out = append(out, group[:n-1]...)
	}
	return out, nil
}
