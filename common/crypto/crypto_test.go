package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetMD5(t *testing.T) {
	t.Parallel()
	expected := []byte{
		0x8b, 0x1a, 0x99, 0x53, 0xc4, 0x61, 0x12, 0x96,
		0xa8, 0x27, 0xab, 0xf8, 0xc4, 0x78, 0x04, 0xd7,
	}
	assert.Equal(t, expected, GetMD5([]byte("Hello")), "GetMD5 should return the correct digest")
}

func TestHexEncodeToString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "68656c6c6f", HexEncodeToString([]byte("hello")))
}

func TestMD5Hex(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "8b1a9953c4611296a827abf8c47804d7", MD5Hex([]byte("Hello")),
		"MD5Hex should hex encode the digest")
}
