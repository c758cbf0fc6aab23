package mapper

import (
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/correlate"
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/wire"
)

func (m *Mapper) dispatchFstat(stod int32, pkt wire.FstatPacket) []Event {
	server, err := m.store.GetServer(stod, int(pkt.Tod.Sid))
	if err != nil {
		log.WithField("sid", pkt.Tod.Sid).Debug("mapper: fstat packet references unknown server, dropping")
		recordsDropped.WithLabelValues("fstat").Inc()
		return nil
	}

	var events []Event
	for _, rec := range pkt.Records {
		ev := m.convertFstatRecord(stod, server, rec)
		if ev != nil {
			events = append(events, ev)
		}
	}
	if len(events) == 0 {
		return nil
	}
	return []Event{FstatWindow{
		Server: server,
		Start:  pkt.Tod.Start,
		End:    pkt.Tod.End,
		Events: events,
	}}
}

func (m *Mapper) convertFstatRecord(stod int32, server correlate.ServerInfo, rec wire.FstatRecord) Event {
	switch r := rec.(type) {
	case wire.FileDSC:
		u, err := m.store.GetUser(stod, r.DictId)
		if err != nil {
			recordsDropped.WithLabelValues("fstat").Inc()
			return nil
		}
		m.store.FreeUser(stod, r.DictId)
		return Disconnect{Server: server, Client: u.Client}

	case wire.FileOPN:
		var lfn []byte
		var client *wire.UserId
		if r.HasUser {
			access := m.store.SetAccess(server, r.FileId, r.User, r.Lfn)
			lfn, client = access.Path, access.Client
		} else {
			access, err := m.store.GetAccess(stod, r.FileId)
			if err != nil {
				recordsDropped.WithLabelValues("fstat").Inc()
				return nil
			}
			lfn, client = access.Path, access.Client
		}
		return Open{
			Server:    server,
			Client:    client,
			Lfn:       lfn,
			ReadWrite: r.Flags&wire.FlagHasRW != 0,
			FileSize:  r.FileSize,
			VOName:    extractVOName(lfn),
		}

	case wire.FileCLS:
		access, err := m.store.GetAccess(stod, r.FileId)
		if err != nil {
			recordsDropped.WithLabelValues("fstat").Inc()
			return nil
		}
		m.store.FreeAccess(stod, r.FileId)
		return Close{
			Server: server,
			Client: access.Client,
			Lfn:    access.Path,
			Read:   r.Read,
			Readv:  r.Readv,
			Write:  r.Write,
			Ops:    r.Ops,
			Ssq:    r.Ssq,
			VOName: extractVOName(access.Path),
		}

	case wire.FileXFR:
		access, err := m.store.GetAccess(stod, r.FileId)
		if err != nil {
			recordsDropped.WithLabelValues("fstat").Inc()
			return nil
		}
		m.store.FreeAccess(stod, r.FileId)
		return Transfer{
			Server: server,
			Client: access.Client,
			Lfn:    access.Path,
			Read:   r.Read,
			Readv:  r.Readv,
			Write:  r.Write,
			VOName: extractVOName(access.Path),
		}

	default:
		return nil
	}
}
