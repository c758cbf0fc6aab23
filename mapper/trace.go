package mapper

import (
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/correlate"
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/wire"
)

// dispatchTrace turns a decoded trace packet's window groups into
// TraceWindow events. pkt.Groups always carries one trailing, record-less
// group holding the packet's closing window mark (see wire.decodeTrace), so
// the real windows are pkt.Groups[:len-1] and each one's End comes from the
// following group's Mark, never its own (a window's own Mark.End is a
// leftover field from the record's opening, not this window's close).
func (m *Mapper) dispatchTrace(stod int32, pkt wire.TracePacket) []Event {
	var windows []Event
	if len(pkt.Groups) == 0 {
		return windows
	}
	for i := 0; i < len(pkt.Groups)-1; i++ {
		group := pkt.Groups[i]
		server, err := m.store.GetServer(stod, int(group.Mark.Sid))
		if err != nil {
			log.WithField("sid", group.Mark.Sid).Debug("mapper: trace window references unknown server, dropping")
			recordsDropped.WithLabelValues("trace").Inc()
			continue
		}

		var events []Event
		for _, rec := range group.Records {
			if ev := m.convertTraceRecord(stod, server, rec); ev != nil {
				events = append(events, ev)
			}
		}

		windows = append(windows, TraceWindow{
			Server: server,
			Start:  group.Mark.Start,
			End:    pkt.Groups[i+1].Mark.End,
			Events: events,
		})
	}
	return windows
}

func (m *Mapper) convertTraceRecord(stod int32, server correlate.ServerInfo, rec wire.TraceRecord) Event {
	switch r := rec.(type) {
	case wire.TraceOpen:
		access, err := m.store.GetAccess(stod, r.DictId)
		if err != nil {
			recordsDropped.WithLabelValues("trace").Inc()
			return nil
		}
		return Open{
			Server:   server,
			Client:   access.Client,
			Lfn:      access.Path,
			FileSize: int64(r.FileSize),
			VOName:   extractVOName(access.Path),
		}

	case wire.TraceClose:
		access, err := m.store.GetAccess(stod, r.DictId)
		if err != nil {
			recordsDropped.WithLabelValues("trace").Inc()
			return nil
		}
		m.store.FreeAccess(stod, r.DictId)
		return Close{
			Server: server,
			Client: access.Client,
			Lfn:    access.Path,
			Read:   r.Rtot,
			Write:  r.Wtot,
			VOName: extractVOName(access.Path),
		}

	case wire.TraceDisc:
		u, err := m.store.GetUser(stod, r.DictId)
		if err != nil {
			recordsDropped.WithLabelValues("trace").Inc()
			return nil
		}
		m.store.FreeUser(stod, r.DictId)
		return Disconnect{
			Server:   server,
			Client:   u.Client,
			Duration: r.Buflen,
			Forced:   r.Forced,
		}

	case wire.TraceReadWrite:
		access, err := m.store.GetAccess(stod, r.DictId)
		if err != nil {
			recordsDropped.WithLabelValues("trace").Inc()
			return nil
		}
		return ReadWriteEvent{
			Server:   server,
			Client:   access.Client,
			Lfn:      access.Path,
			ReadLen:  r.ReadLen,
			WriteLen: r.WriteLen,
		}

	case wire.TraceRead, wire.TraceAppId:
		// ReadU/ReadV are unsupported; AppId carries no correlatable
		// dictid. Both are silently dropped per the dispatch contract.
		return nil

	default:
		return nil
	}
}
