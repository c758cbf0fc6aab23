package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileTOD(start, end int32, sid int64) []byte {
	b := make([]byte, 24)
	b[0] = recIsTime
	b[1] = 0
	putU16(b[2:4], 24)
	putU16(b[4:6], 0)
	putU16(b[6:8], 0)
	putU32(b[8:12], uint32(start))
	putU32(b[12:16], uint32(end))
	putU32(b[16:20], 0)
	putU32(b[20:24], uint32(sid))
	return b
}

func fileOPNWithLFN(fileId uint32, fsz int64, user uint32, lfn string) []byte {
	tail := append([]byte(lfn), 0)
	size := 20 + len(tail)
	b := make([]byte, size)
	b[0] = recIsOpen
	b[1] = flagHasLFN
	putU16(b[2:4], uint16(size))
	putU32(b[4:8], fileId)
	putU32(b[8:12], 0)
	putU32(b[12:16], uint32(fsz))
	putU32(b[16:20], user)
	copy(b[20:], tail)
	return b
}

func fileCLS(fileId uint32) []byte {
	b := make([]byte, 32)
	b[0] = recIsClose
	b[1] = 0
	putU16(b[2:4], 32)
	putU32(b[4:8], fileId)
	return b
}

func TestDecodeFstatOpenCloseWindow(t *testing.T) {
	body := fileTOD(10, 20, 42)
	body = append(body, fileOPNWithLFN(7, 1024, 5, "/store/foo")...)
	body = append(body, fileCLS(7)...)

	pkt, err := decodeFstat(body, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(10), pkt.Tod.Start)
	assert.Equal(t, int32(20), pkt.Tod.End)
	assert.Equal(t, int64(42), pkt.Tod.Sid)
	require.Len(t, pkt.Records, 2)

	open, ok := pkt.Records[0].(FileOPN)
	require.True(t, ok)
	assert.True(t, open.HasUser)
	assert.Equal(t, uint32(5), open.User)
	assert.Equal(t, "/store/foo", string(open.Lfn))

	cls, ok := pkt.Records[1].(FileCLS)
	require.True(t, ok)
	assert.Equal(t, uint32(7), cls.FileId)
}

func TestDecodeFstatRejectsBadFirstRecord(t *testing.T) {
	_, err := decodeFstat(fileCLS(1), 0)
	require.Error(t, err)
}

func TestDecodeFstatCloseWithStats(t *testing.T) {
	cls := fileCLS(9)
	cls[1] = flagHasRW | flagHasSSQ
	putU16(cls[2:4], uint16(32+48+32))
	ops := make([]byte, 48)
	putU32(ops[0:4], 3)
	ssq := make([]byte, 32)
	putU32(ssq[4:8], 1) // lower half of the int64 read from ssq[0:8]; only presence is checked below
	full := append(append([]byte{}, cls...), ops...)
	full = append(full, ssq...)

	body := fileTOD(0, 0, 0)
	body = append(body, full...)

	pkt, err := decodeFstat(body, 0)
	require.NoError(t, err)
	require.Len(t, pkt.Records, 1)
	rec := pkt.Records[0].(FileCLS)
	require.NotNil(t, rec.Ops)
	require.NotNil(t, rec.Ssq)
}
