package wire

// Fstat record type tags, per the XRootD fstat stream's recType enum.
const (
	recIsClose uint8 = 0
	recIsOpen  uint8 = 1
	recIsTime  uint8 = 2
	recIsXFR   uint8 = 3
	recIsDisc  uint8 = 4
)

// Fstat record flag bits.
const (
	flagHasLFN uint8 = 0x01 // also hasSID, depending on record type
	flagHasRW  uint8 = 0x02 // also hasOPS
	flagHasSSQ uint8 = 0x04 // implies hasOPS
)

// sidMask strips the high status bits XRootD packs alongside a raw sid.
const sidMask = 0x00FFFFFFFFFFFFFF

// Exported flag aliases, for callers interpreting FileOPN.Flags/FileCLS.Flags
// without reaching into package-private constants.
const (
	FlagHasLFN = flagHasLFN
	FlagHasRW  = flagHasRW
	FlagHasSSQ = flagHasSSQ
)

// FileTOD is the mandatory first record of an Fstat packet: the server's
// identity for this window plus aggregate counts.
type FileTOD struct {
	Flags       uint8
	RecordsXfr  int16
	RecordsTotal int16
	Start       int32
	End         int32
	Sid         int64
}

// FileDSC reports that a client disconnected from the server.
type FileDSC struct {
	Flags  uint8
	DictId uint32
}

// FileOPN reports that a client opened a file. User/Lfn are present only
// when Flags&hasLFN is set; otherwise the access must be resolved from a
// prior Path map record.
type FileOPN struct {
	Flags    uint8
	FileId   uint32
	FileSize int64
	HasUser  bool
	User     uint32
	Lfn      []byte
}

// StatOPS carries per-file operation counters, present on FileCLS when
// Flags&hasOPS is set.
type StatOPS struct {
	Read, Readv, Write                         int32
	RsMin, RsMax                                int16
	Rsegs                                        int64
	RdMin, RdMax, RvMin, RvMax, WrMin, WrMax int32
}

// StatSSQ carries sum-of-squares byte counters, present on FileCLS when
// Flags&hasSSQ is set (implies StatOPS is also present).
type StatSSQ struct {
	Read, Readv, Rsegs, Write int64
}

// FileCLS reports that a client closed a file, with transfer totals and
// optional extended statistics.
type FileCLS struct {
	Flags              uint8
	FileId             uint32
	Read, Readv, Write int64
	Ops                *StatOPS
	Ssq                *StatSSQ
}

// FileXFR reports file-residency-manager transfer totals.
type FileXFR struct {
	Flags              uint8
	FileId             uint32
	Read, Readv, Write int64
}

// FstatRecord is one of FileDSC, FileOPN, FileCLS or FileXFR.
type FstatRecord interface {
	isFstatRecord()
}

func (FileDSC) isFstatRecord() {}
func (FileOPN) isFstatRecord() {}
func (FileCLS) isFstatRecord() {}
func (FileXFR) isFstatRecord() {}

// FstatPacket is the decoded body of an 'f' packet.
type FstatPacket struct {
	Tod     FileTOD
	Records []FstatRecord
}

func decodeFstat(body []byte, base int64) (FstatPacket, error) {
	if len(body) < 24 {
		return FstatPacket{}, newDecodeError(base, "fstat", errShortRecord)
	}
	recType, _, recSize := body[0], body[1], beUint16(body[2:4])
	if recType != recIsTime {
		return FstatPacket{}, newDecodeError(base, "fstat", errBadFirstRec)
	}
	tod := FileTOD{
		Flags:        body[1],
		RecordsXfr:   beInt16(body[4:6]),
		RecordsTotal: beInt16(body[6:8]),
		Start:        beInt32(body[8:12]),
		End:          beInt32(body[12:16]),
		Sid:          beInt64(body[16:24]) & sidMask,
	}
	off := int(recSize)
	var records []FstatRecord
	for off < len(body) {
		rec, size, err := decodeFstatRecord(body[off:], base+int64(off))
		if err != nil {
			return FstatPacket{}, err
		}
		records = append(records, rec)
		off += size
	}
	return FstatPacket{Tod: tod, Records: records}, nil
}

func decodeFstatRecord(b []byte, base int64) (FstatRecord, int, error) {
	if len(b) < 4 {
		return nil, 0, newDecodeError(base, "fstat-record", errShortRecord)
	}
	recType, flags, recSize := b[0], b[1], int(beUint16(b[2:4]))
	if recSize < 4 || recSize > len(b) {
		return nil, 0, newDecodeError(base, "fstat-record", errShortRecord)
	}
	switch recType {
	case recIsDisc:
		if recSize < 8 {
			return nil, 0, newDecodeError(base, "filedsc", errShortRecord)
		}
		return FileDSC{Flags: flags, DictId: beUint32(b[4:8])}, recSize, nil
	case recIsOpen:
		if recSize < 16 {
			return nil, 0, newDecodeError(base, "fileopn", errShortRecord)
		}
		rec := FileOPN{
			Flags:    flags,
			FileId:   beUint32(b[4:8]),
			FileSize: beInt64(b[8:16]),
		}
		if flags&flagHasLFN != 0 {
			if recSize < 20 {
				return nil, 0, newDecodeError(base, "fileopn", errShortRecord)
			}
			rec.HasUser = true
			rec.User = beUint32(b[16:20])
			lfn := b[20:recSize]
			if idx := indexByte(lfn, 0); idx >= 0 {
				lfn = lfn[:idx]
			}
			rec.Lfn = lfn
		}
		return rec, recSize, nil
	case recIsClose:
		if recSize < 32 {
			return nil, 0, newDecodeError(base, "filecls", errShortRecord)
		}
		rec := FileCLS{
			Flags:  flags,
			FileId: beUint32(b[4:8]),
			Read:   beInt64(b[8:16]),
			Readv:  beInt64(b[16:24]),
			Write:  beInt64(b[24:32]),
		}
		off := 32
		if flags&flagHasRW != 0 {
			ops, err := decodeStatOPS(b[off:], base+int64(off))
			if err != nil {
				return nil, 0, err
			}
			rec.Ops = &ops
			off += 48
			if flags&flagHasSSQ != 0 {
				ssq, err := decodeStatSSQ(b[off:], base+int64(off))
				if err != nil {
					return nil, 0, err
				}
				rec.Ssq = &ssq
				off += 32
			}
		}
		return rec, recSize, nil
	case recIsXFR:
		if recSize < 32 {
			return nil, 0, newDecodeError(base, "filexfr", errShortRecord)
		}
		return FileXFR{
			Flags:  flags,
			FileId: beUint32(b[4:8]),
			Read:   beInt64(b[8:16]),
			Readv:  beInt64(b[16:24]),
			Write:  beInt64(b[24:32]),
		}, recSize, nil
	default:
		return nil, 0, newDecodeError(base, "fstat-record", errUnknownTag)
	}
}

func decodeStatOPS(b []byte, base int64) (StatOPS, error) {
	if len(b) < 48 {
		return StatOPS{}, newDecodeError(base, "statops", errShortRecord)
	}
	return StatOPS{
		Read:  beInt32(b[0:4]),
		Readv: beInt32(b[4:8]),
		Write: beInt32(b[8:12]),
		RsMin: beInt16(b[12:14]),
		RsMax: beInt16(b[14:16]),
		Rsegs: beInt64(b[16:24]),
		RdMin: beInt32(b[24:28]),
		RdMax: beInt32(b[28:32]),
		RvMin: beInt32(b[32:36]),
		RvMax: beInt32(b[36:40]),
		WrMin: beInt32(b[40:44]),
		WrMax: beInt32(b[44:48]),
	}, nil
}

func decodeStatSSQ(b []byte, base int64) (StatSSQ, error) {
	if len(b) < 32 {
		return StatSSQ{}, newDecodeError(base, "statssq", errShortRecord)
	}
	return StatSSQ{
		Read:  beInt64(b[0:8]),
		Readv: beInt64(b[8:16]),
		Rsegs: beInt64(b[16:24]),
		Write: beInt64(b[24:32]),
	}, nil
}
