package wire

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putU16(b []byte, v uint16) { binary.BigEndian.PutUint16(b, v) }
func putU32(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }

func header(code byte, pseq uint8, plen uint16, stod int32) []byte {
	b := make([]byte, 8)
	b[0] = code
	b[1] = pseq
	putU16(b[2:4], plen)
	putU32(b[4:8], uint32(stod))
	return b
}

func TestDecodeOneRoundTripsLength(t *testing.T) {
	body := append([]byte{}, []byte{0, 0, 0, 1}...) // dictid
	body = append(body, []byte("user.1:2@host.example\npgm=xrootd&ver=5&inst=i&port=1094&site=T2")...)
	pkt := append(header(CodeMap, 1, uint16(8+len(body)), 100), body...)

	decoded, err := DecodeOne(pkt)
	require.NoError(t, err)
	assert.Equal(t, uint16(len(pkt)), decoded.Header.Plen)

	rec, ok := decoded.Payload.(MapRecord)
	require.True(t, ok)
	assert.Equal(t, uint32(1), rec.DictId)
	assert.Equal(t, "user", rec.UserId.Username)
	assert.Equal(t, 1, rec.UserId.Pid)
	assert.Equal(t, 2, rec.UserId.Sid)
	assert.Equal(t, "host.example", rec.UserId.Host)

	srv, ok := rec.Payload.(SrvInfo)
	require.True(t, ok)
	assert.Equal(t, "xrootd", srv.Program)
	assert.Equal(t, 1094, srv.Port)
	assert.Equal(t, "T2", srv.Site)
}

func TestDecodeOnePlenMismatch(t *testing.T) {
	pkt := header(CodeMap, 0, 99, 0)
	pkt = append(pkt, []byte{0, 0, 0, 1}...)
	_, err := DecodeOne(pkt)
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
}

func TestDecodeOneUnknownCode(t *testing.T) {
	pkt := header('?', 0, 8, 0)
	_, err := DecodeOne(pkt)
	require.Error(t, err)
}

func TestDecoderSourceExhausted(t *testing.T) {
	d := NewDecoder(&truncReader{})
	_, err := d.Next()
	assert.ErrorIs(t, err, ErrSourceExhausted)
}

type truncReader struct{}

func (truncReader) Read(p []byte) (int, error) { return 0, io.EOF }
