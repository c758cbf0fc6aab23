package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func traceWindowRecord(sid int64, end, start int32) []byte {
	b := make([]byte, 16)
	b[0] = traceWindow
	raw := make([]byte, 6)
	v := uint64(sid)
	for i := 5; i >= 0; i-- {
		raw[i] = byte(v)
		v >>= 8
	}
	copy(b[2:8], raw)
	putU32(b[8:12], uint32(end))
	putU32(b[12:16], uint32(start))
	return b
}

func traceOpenRecord(filesize uint64, dictid uint32) []byte {
	b := make([]byte, 16)
	b[0] = traceOpen
	raw := make([]byte, 7)
	v := filesize
	for i := 6; i >= 0; i-- {
		raw[i] = byte(v)
		v >>= 8
	}
	copy(b[1:8], raw)
	putU32(b[12:16], dictid)
	return b
}

func traceReadWriteRecord(buflen int32, dictid uint32) []byte {
	b := make([]byte, 16)
	putU32(b[8:12], uint32(buflen))
	putU32(b[12:16], dictid)
	return b
}

func traceCloseRecord(dictid uint32) []byte {
	b := make([]byte, 16)
	b[0] = traceClose
	putU32(b[12:16], dictid)
	return b
}

func TestDecodeTraceWindowGroup(t *testing.T) {
	body := traceWindowRecord(5, 0, 10)
	body = append(body, traceOpenRecord(2048, 1)...)
	body = append(body, traceReadWriteRecord(1024, 1)...)
	body = append(body, traceCloseRecord(1)...)
	body = append(body, traceWindowRecord(0, 20, 0)...)

	pkt, err := decodeTrace(body, 0)
	require.NoError(t, err)
	require.Len(t, pkt.Groups, 2)
	g := pkt.Groups[0]
	assert.Equal(t, int32(10), g.Mark.Start)
	require.Len(t, g.Records, 3)

	rw := g.Records[1].(TraceReadWrite)
	assert.Equal(t, int32(1024), rw.ReadLen)
	assert.Equal(t, int32(0), rw.WriteLen)

	closing := pkt.Groups[1]
	assert.Equal(t, int32(20), closing.Mark.End)
	assert.Empty(t, closing.Records)
}

func TestDecodeTraceWriteSign(t *testing.T) {
	body := traceWindowRecord(1, 0, 0)
	body = append(body, traceReadWriteRecord(-512, 9)...)
	body = append(body, traceWindowRecord(0, 1, 0)...)

	pkt, err := decodeTrace(body, 0)
	require.NoError(t, err)
	rw := pkt.Groups[0].Records[0].(TraceReadWrite)
	assert.Equal(t, int32(0), rw.ReadLen)
	assert.Equal(t, int32(512), rw.WriteLen)
}

func TestDecodeTraceDanglingRecordsRejected(t *testing.T) {
	body := traceWindowRecord(1, 0, 0)
	body = append(body, traceReadWriteRecord(1, 1)...)
	_, err := decodeTrace(body, 0)
	require.Error(t, err)
}
