package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func burrServerIdentRecord(sid int64) []byte {
	b := make([]byte, 8)
	b[0] = burrServerIdent
	raw := make([]byte, 6)
	v := uint64(sid)
	for i := 5; i >= 0; i-- {
		raw[i] = byte(v)
		v >>= 8
	}
	copy(b[2:8], raw)
	return b
}

func burrWindowMarkRecord(ts, prevDuration int32) []byte {
	b := make([]byte, 12)
	b[0] = 0x00
	putU16(b[2:4], 12)
	putU32(b[4:8], uint32(ts))
	putU32(b[8:12], uint32(prevDuration))
	return b
}

func burrRedirectRecord(action uint8, dictid uint32, target string, port uint16, path string) []byte {
	tail := append([]byte(target), 0)
	tail = append(tail, []byte(path)...)
	size := 10 + len(tail)
	b := make([]byte, size)
	b[0] = action
	putU16(b[2:4], uint16(size))
	putU32(b[4:8], dictid)
	putU16(b[8:10], port)
	copy(b[10:], tail)
	return b
}

func TestDecodeBurrWindow(t *testing.T) {
	body := burrServerIdentRecord(77)
	body = append(body, burrWindowMarkRecord(100, 0)...)
	body = append(body, burrRedirectRecord(burrRedirect, 1, "redirect.example", 1094, "/store/a")...)
	body = append(body, burrRedirectRecord(burrRedirLocal, 2, "redirect2.example", 1094, "/store/b")...)
	body = append(body, burrWindowMarkRecord(0, 60)...)

	pkt, err := decodeBurr(body, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(77), pkt.Sid.Sid)
	require.Len(t, pkt.Entries, 4)

	r1 := pkt.Entries[1].(BurrRedirect)
	assert.Equal(t, RedirActionCmsd, r1.Action)
	assert.Equal(t, "redirect.example", string(r1.Target))
	assert.Equal(t, "/store/a", string(r1.Path))

	r2 := pkt.Entries[2].(BurrRedirect)
	assert.Equal(t, RedirActionXrootd, r2.Action)

	mark2 := pkt.Entries[3].(BurrWindowMark)
	assert.Equal(t, int32(60), mark2.PrevDuration)
}

func TestDecodeBurrRejectsMissingServerIdent(t *testing.T) {
	_, err := decodeBurr(burrWindowMarkRecord(0, 0), 0)
	require.Error(t, err)
}
