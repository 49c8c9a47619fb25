// Package crypto holds the hashing helpers used to identify beatmaps and
// replays.
package crypto

// nolint:gosec // md5 is the hash the osu! client keys its files by
import (
	"crypto/md5"
	"encoding/hex"
)

// HexEncodeToString takes in a hexadecimal byte array and returns a string
func HexEncodeToString(input []byte) string {
	return hex.EncodeToString(input)
}

// GetMD5 returns a MD5 hash of a byte array
func GetMD5(input []byte) []byte {
	m := md5.New() // nolint:gosec // identity hash, not auth
	m.Write(input)
	return m.Sum(nil)
}

// MD5Hex returns the lowercase hex MD5 digest of a byte array
func MD5Hex(input []byte) string {
	return HexEncodeToString(GetMD5(input))
}
