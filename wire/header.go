package wire

// Packet type codes, discriminating the header's Code byte into a record
// family. Naming follows the XRootD detailed-monitoring documentation.
const (
	CodeMap     byte = '=' // server identification
	CodeDictID  byte = 'd' // dictionary id for a path
	CodeInfo    byte = 'i' // dictionary id for application info
	CodePurge   byte = 'p' // purge (FRM)
	CodeUser    byte = 'u' // user login/auth
	CodeXFR     byte = 'x' // transfer (FRM)
	CodeRedir   byte = 'r' // burr / redirect stream
	CodeFstat   byte = 'f' // fstat stream
	CodeTrace   byte = 't' // buff / trace stream
	CodeGStream byte = 'g' // plugin g-stream
)

// headerSize is the fixed framing header: code, pseq, plen, stod.
const headerSize = 8

// Header is the fixed 8-byte packet header common to every family.
type Header struct {
	Code byte
	Pseq uint8
	Plen uint16
	Stod int32
}

func decodeHeader(b []byte) Header {
	return Header{
		Code: b[0],
		Pseq: b[1],
		Plen: beUint16(b[2:4]),
		Stod: int32(beUint32(b[4:8])),
	}
}

func beUint16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func beUint64(b []byte) uint64 {
	return uint64(beUint32(b[0:4]))<<32 | uint64(beUint32(b[4:8]))
}

func beInt16(b []byte) int16 { return int16(beUint16(b)) }
func beInt32(b []byte) int32 { return int32(beUint32(b)) }
func beInt64(b []byte) int64 { return int64(beUint64(b)) }

// be56 decodes a 7-byte big-endian unsigned integer (used by trace Open's
// filesize field, which XRootD packs without its own 8th byte).
func be56(b []byte) uint64 {
	var v uint64
	for _, c := range b[:7] {
		v = v<<8 | uint64(c)
	}
	return v
}
