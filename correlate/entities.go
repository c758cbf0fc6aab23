package correlate

import "github.com/opensciencegrid/xrootd-monitoring-shoveler/wire"

// ServerInfo is a daemon instance's identity, installed by a SrvInfo map
// record and held by value: users and accesses below reference it by key,
// resolved at emission time, rather than by pointer.
type ServerInfo struct {
	Stod     int32
	Sid      int
	Protocol string
	User     string
	Pid      int
	Host     string
	Port     int
	Program  string
	Version  string
	Instance string
	Site     string
}

// UserInfo is a client session's identity, installed by an AuthInfo map
// record.
type UserInfo struct {
	Client   wire.UserId
	ServerID ServerKey
	Auth     wire.AuthInfo
}

// PathAccessInfo is a file access's identity: the path a dictid names,
// optionally attributed to a client. Installed by a Path map record, or
// synthesized by the fstat handler for an inline FileOPN.
type PathAccessInfo struct {
	Client   *wire.UserId
	ServerID ServerKey
	Path     []byte
	Auth     *wire.AuthInfo
}

// ServerKey names a daemon instance.
type ServerKey struct {
	Stod int32
	Sid  int
}

// DictKey names a dictid-scoped entity (user or access) within a daemon
// instance.
type DictKey struct {
	Stod   int32
	DictId uint32
}

// hostPort identifies a logical server independent of daemon restarts.
type hostPort struct {
	Host string
	Port int
}
