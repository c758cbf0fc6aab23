// Package mapper resolves a reordered packet stream against a correlation
// store and emits the ephemeral events a downstream consumer cares about:
// opens, closes, transfers, disconnects, redirections and reads, each
// carrying a resolved client/server identity and no back-reference into the
// store that produced it.
package mapper

import (
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/correlate"
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/wire"
)

// Event is any value this package emits from Mapper.Next.
type Event interface {
	isEvent()
}

// ServerIdentity is emitted when a Map/SrvInfo record installs or replaces
// a server's identity.
type ServerIdentity struct {
	Info correlate.ServerInfo
}

// UserIdentity is emitted when a Map/AuthInfo record installs a user's
// identity.
type UserIdentity struct {
	Info correlate.UserInfo
}

// AccessIdentity is emitted when a Map/Path record installs an access's
// identity.
type AccessIdentity struct {
	Info correlate.PathAccessInfo
}

// Disconnect reports that a client session ended, by fstat FileDSC or by a
// trace Disc record. Duration and Forced are only populated for the latter.
type Disconnect struct {
	Server   correlate.ServerInfo
	Client   wire.UserId
	Duration int32
	Forced   bool
}

// Open reports that a file was opened.
type Open struct {
	Server    correlate.ServerInfo
	Client    *wire.UserId
	Lfn       []byte
	ReadWrite bool
	FileSize  int64
	VOName    string
}

// Close reports that a file was closed, with transfer totals and optional
// extended statistics.
type Close struct {
	Server             correlate.ServerInfo
	Client             *wire.UserId
	Lfn                []byte
	Read, Readv, Write int64
	Ops                *wire.StatOPS
	Ssq                *wire.StatSSQ
	VOName             string
}

// Transfer reports file-residency-manager transfer totals.
type Transfer struct {
	Server             correlate.ServerInfo
	Client             *wire.UserId
	Lfn                []byte
	Read, Readv, Write int64
	VOName             string
}

// ReadWriteEvent reports a single read or write observed on the trace
// stream.
type ReadWriteEvent struct {
	Server   correlate.ServerInfo
	Client   *wire.UserId
	Lfn      []byte
	ReadLen  int32
	WriteLen int32
}

// Redirection reports that a client was redirected to another server.
type Redirection struct {
	Server correlate.ServerInfo
	Client wire.UserId
	Action wire.RedirAction
	Target []byte
	Port   uint16
	Path   []byte
}

// FstatWindow groups the fstat records converted from a single packet.
type FstatWindow struct {
	Server correlate.ServerInfo
	Start  int32
	End    int32
	Events []Event
}

// TraceWindow groups the trace records between two window marks.
type TraceWindow struct {
	Server correlate.ServerInfo
	Start  int32
	End    int32
	Events []Event
}

// RedirWindow groups the redirect records between two burr window marks.
type RedirWindow struct {
	Server correlate.ServerInfo
	Start  int32
	End    int32
	Events []Event
}

// PluginRecord is a decoded g-stream plugin packet, emitted directly with
// no correlation.
type PluginRecord struct {
	TBeg     int32
	TEnd     int32
	Provider uint8
	Lines    []wire.PluginLine
}

func (ServerIdentity) isEvent()  {}
func (UserIdentity) isEvent()    {}
func (AccessIdentity) isEvent()  {}
func (Disconnect) isEvent()      {}
func (Open) isEvent()            {}
func (Close) isEvent()           {}
func (Transfer) isEvent()        {}
func (ReadWriteEvent) isEvent()  {}
func (Redirection) isEvent()     {}
func (FstatWindow) isEvent()     {}
func (TraceWindow) isEvent()     {}
func (RedirWindow) isEvent()     {}
func (PluginRecord) isEvent()    {}
