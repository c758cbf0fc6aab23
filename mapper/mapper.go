package mapper

import (
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/correlate"
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/wire"
)

// PacketSource yields decoded, reordered packets. *reorder.Stream[wire.Packet]
// satisfies this interface.
type PacketSource interface {
	Next() (wire.Packet, error)
}

// Mapper is the central per-packet dispatcher: it pulls packets from a
// PacketSource, correlates them against a Store, and yields Events one at a
// time, in the order they are produced.
type Mapper struct {
	src       PacketSource
	store     *correlate.Store
	ownsStore bool

	pending []Event
}

// New constructs a Mapper reading from src. By default it creates and owns
// its own correlation store (closed when Stop is called); pass WithStore to
// share one across Mappers instead.
func New(src PacketSource, opts ...Option) *Mapper {
	cfg := config{cleanDelay: correlate.DefaultCleanDelay}
	for _, opt := range opts {
		opt(&cfg)
	}
	m := &Mapper{src: src, store: cfg.store}
	if m.store == nil {
		m.store = correlate.NewStore(cfg.cleanDelay)
		m.ownsStore = true
	}
	return m
}

// Stop releases the Mapper-owned store's background eviction goroutine. It
// is a no-op when the store was supplied via WithStore.
func (m *Mapper) Stop() {
	if m.ownsStore {
		m.store.Stop()
	}
}

// Next returns the next Event, pulling and dispatching packets from the
// underlying source as needed. It returns the source's error (typically
// wire.ErrSourceExhausted) once the source is drained.
func (m *Mapper) Next() (Event, error) {
	for len(m.pending) == 0 {
		pkt, err := m.src.Next()
		if err != nil {
			return nil, err
		}
		m.pending = m.dispatch(pkt)
	}
	ev := m.pending[0]
	m.pending = m.pending[1:]
	return ev, nil
}

func (m *Mapper) dispatch(pkt wire.Packet) []Event {
	switch p := pkt.Payload.(type) {
	case wire.MapRecord:
		return m.dispatchMap(pkt.Header.Stod, p)
	case wire.FstatPacket:
		return m.dispatchFstat(pkt.Header.Stod, p)
	case wire.TracePacket:
		return m.dispatchTrace(pkt.Header.Stod, p)
	case wire.BurrPacket:
		return m.dispatchBurr(pkt.Header.Stod, p)
	case wire.PluginPacket:
		return []Event{PluginRecord{TBeg: p.TBeg, TEnd: p.TEnd, Provider: p.Provider, Lines: p.Lines}}
	default:
		return nil
	}
}

func (m *Mapper) dispatchMap(stod int32, rec wire.MapRecord) []Event {
	switch p := rec.Payload.(type) {
	case wire.SrvInfo:
		info := m.store.IngestSrvInfo(stod, rec.DictId, rec.UserId, p)
		return []Event{ServerIdentity{Info: info}}
	case wire.AuthInfo:
		u, err := m.store.IngestAuthInfo(stod, rec.DictId, rec.UserId, p)
		if err != nil {
			log.WithField("sid", rec.UserId.Sid).Debug("mapper: auth record references unknown server")
			recordsDropped.WithLabelValues("map").Inc()
			return nil
		}
		return []Event{UserIdentity{Info: u}}
	case wire.Path:
		a, err := m.store.IngestPath(stod, rec.DictId, rec.UserId, p)
		if err != nil {
			log.WithField("sid", rec.UserId.Sid).Debug("mapper: path record references unknown server")
			recordsDropped.WithLabelValues("map").Inc()
			return nil
		}
		return []Event{AccessIdentity{Info: a}}
	default:
		return nil
	}
}
