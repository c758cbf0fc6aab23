// Package xrdmon ties the wire decoder, reorder buffer, correlation store
// and stream mapper into the two composable entry points named by the
// monitoring-stream contract: Stream and MapStreams.
package xrdmon

import (
	"io"

	"github.com/opensciencegrid/xrootd-monitoring-shoveler/mapper"
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/reorder"
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/wire"
)

// DefaultWindow is the reorder buffer's default width.
const DefaultWindow = 8

type decoderSource struct {
	d *wire.Decoder
}

func (s decoderSource) Next() (reorder.Seq, wire.Packet, error) {
	pkt, err := s.d.Next()
	if err != nil {
		return 0, wire.Packet{}, err
	}
	return reorder.Seq(pkt.Header.Pseq), pkt, nil
}

// Stream decodes framed packets from source and reorders them into sender
// sequence, up to window packets of slack. window defaults to
// DefaultWindow when 0 is passed.
func Stream(source io.Reader, window int) (*reorder.Stream[wire.Packet], error) {
	if window == 0 {
		window = DefaultWindow
	}
	return reorder.NewStream[wire.Packet](decoderSource{d: wire.NewDecoder(source)}, window)
}

// packetSource adapts a *reorder.Stream[wire.Packet] to mapper.PacketSource.
type packetSource struct {
	s *reorder.Stream[wire.Packet]
}

func (p packetSource) Next() (wire.Packet, error) { return p.s.Next() }

// MapStreams wraps a reordered packet stream with a fresh correlation store
// and stream mapper, yielding a pull iterator of mapper.Event.
func MapStreams(packets *reorder.Stream[wire.Packet], opts ...mapper.Option) *mapper.Mapper {
	return mapper.New(packetSource{s: packets}, opts...)
}
