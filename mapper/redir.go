package mapper

import "github.com/opensciencegrid/xrootd-monitoring-shoveler/wire"

func (m *Mapper) dispatchBurr(stod int32, pkt wire.BurrPacket) []Event {
	server, err := m.store.GetServer(stod, int(pkt.Sid.Sid))
	if err != nil {
		log.WithField("sid", pkt.Sid.Sid).Debug("mapper: burr packet references unknown server, dropping")
		recordsDropped.WithLabelValues("redir").Inc()
		return nil
	}

	var windows []Event
	var current []Event
	var start int32
	haveOpen := false

	for _, entry := range pkt.Entries {
		switch e := entry.(type) {
		case wire.BurrWindowMark:
			if haveOpen {
				windows = append(windows, RedirWindow{
					Server: server,
					Start:  start,
					End:    start + e.PrevDuration,
					Events: current,
				})
			}
			current = nil
			start = e.Timestamp
			haveOpen = true

		case wire.BurrRedirect:
			u, err := m.store.GetUser(stod, e.DictId)
			if err != nil {
				recordsDropped.WithLabelValues("redir").Inc()
				continue
			}
			current = append(current, Redirection{
				Server: server,
				Client: u.Client,
				Action: e.Action,
				Target: e.Target,
				Port:   e.Port,
				Path:   e.Path,
			})
		}
	}
	return windows
}
