package wire

import "strconv"

// UserId is the `[protocol/]username.pid:sid@host` identity prefix shared by
// every map record.
type UserId struct {
	Protocol string
	Username string
	Pid      int
	Sid      int
	Host     string
}

// parseUserId splits b from the right: host after the last '@', sid after
// the last ':', pid after the last '.', and an optional protocol before the
// first '/'.
func parseUserId(b []byte, base int64) (UserId, error) {
	id := UserId{}
	rest := b
	if idx := indexByte(rest, '/'); idx >= 0 {
		id.Protocol = string(rest[:idx])
		rest = rest[idx+1:]
	}
	at := lastIndexByte(rest, '@')
	if at < 0 {
		return id, newDecodeError(base, "userid", errMissingAt)
	}
	id.Host = string(rest[at+1:])
	rest = rest[:at]

	colon := lastIndexByte(rest, ':')
	if colon < 0 {
		return id, newDecodeError(base, "userid", errMissingColon)
	}
	sid, err := strconv.Atoi(string(rest[colon+1:]))
	if err != nil {
		return id, newDecodeError(base, "userid", err)
	}
	id.Sid = sid
	rest = rest[:colon]

	dot := lastIndexByte(rest, '.')
	if dot < 0 {
		return id, newDecodeError(base, "userid", errMissingDot)
	}
	pid, err := strconv.Atoi(string(rest[dot+1:]))
	if err != nil {
		return id, newDecodeError(base, "userid", err)
	}
	id.Pid = pid
	id.Username = string(rest[:dot])

	return id, nil
}

// SrvInfo is the server-identification map payload (code '=').
type SrvInfo struct {
	Program  string
	Version  string
	Instance string
	Port     int
	Site     string
}

func parseSrvInfo(b []byte) SrvInfo {
	kv := cgiParse(b)
	port, _ := strconv.Atoi(kv["port"])
	return SrvInfo{
		Program:  kv["pgm"],
		Version:  kv["ver"],
		Instance: kv["inst"],
		Port:     port,
		Site:     kv["site"],
	}
}

// Path is the raw path payload for a dictid map record (code 'd').
type Path struct {
	Path []byte
}

// AppInfo is the raw application-info payload (code 'i').
type AppInfo struct {
	Info []byte
}

// PrgInfo is the purge-info payload (code 'p'): an xfn prefix up to the
// first newline, followed by CGI-encoded fields.
type PrgInfo struct {
	Xfn    string
	Fields map[string]string
}

func parsePrgInfo(b []byte) PrgInfo {
	if idx := indexByte(b, '\n'); idx >= 0 {
		return PrgInfo{Xfn: string(b[:idx]), Fields: cgiParse(b[idx+1:])}
	}
	return PrgInfo{Xfn: string(b), Fields: map[string]string{}}
}

// AuthInfo is the authorization payload (code 'u'), CGI-encoded.
type AuthInfo struct {
	Protocol     string
	DN           string
	Host         string
	Organization string
	Role         string
	Groups       string
	Info         string
	ExecName     string
	MonInfo      string
	InetVersion  string
}

func parseAuthInfo(b []byte) AuthInfo {
	kv := cgiParse(b)
	return AuthInfo{
		Protocol:     kv["p"],
		DN:           kv["n"],
		Host:         kv["h"],
		Organization: kv["o"],
		Role:         kv["r"],
		Groups:       kv["g"],
		Info:         kv["m"],
		ExecName:     kv["x"],
		MonInfo:      kv["y"],
		InetVersion:  kv["I"],
	}
}

// XfrInfo is the transfer-info payload (code 'x'): an lfn prefix up to the
// first newline, followed by CGI-encoded fields (an optional "pd" key names
// the destination path for a copy).
type XfrInfo struct {
	Lfn    string
	Fields map[string]string
}

func parseXfrInfo(b []byte) XfrInfo {
	if idx := indexByte(b, '\n'); idx >= 0 {
		return XfrInfo{Lfn: string(b[:idx]), Fields: cgiParse(b[idx+1:])}
	}
	return XfrInfo{Lfn: string(b), Fields: map[string]string{}}
}

// MapPayload is the decoded sub-code specific body of a Map record.
type MapPayload interface {
	isMapPayload()
}

func (SrvInfo) isMapPayload()  {}
func (Path) isMapPayload()     {}
func (AppInfo) isMapPayload()  {}
func (PrgInfo) isMapPayload()  {}
func (AuthInfo) isMapPayload() {}
func (XfrInfo) isMapPayload()  {}

// MapRecord is the decoded body of a Map-family packet.
type MapRecord struct {
	DictId  uint32
	UserId  UserId
	Payload MapPayload
}

func decodeMap(code byte, body []byte, base int64) (MapRecord, error) {
	if len(body) < 4 {
		return MapRecord{}, newDecodeError(base, "map", errShortRecord)
	}
	dictid := beUint32(body[0:4])
	rest := body[4:]

	nl := indexByte(rest, '\n')
	var userPart, payloadPart []byte
	if nl >= 0 {
		userPart = rest[:nl]
		payloadPart = rest[nl+1:]
	} else {
		userPart = rest
	}

	userId, err := parseUserId(userPart, base+4)
	if err != nil {
		return MapRecord{}, err
	}

	var payload MapPayload
	switch code {
	case CodeMap:
		payload = parseSrvInfo(payloadPart)
	case CodeDictID:
		payload = Path{Path: payloadPart}
	case CodeInfo:
		payload = AppInfo{Info: payloadPart}
	case CodePurge:
		payload = parsePrgInfo(payloadPart)
	case CodeUser:
		payload = parseAuthInfo(payloadPart)
	case CodeXFR:
		payload = parseXfrInfo(payloadPart)
	default:
		return MapRecord{}, newDecodeError(base, "map", errUnknownTag)
	}

	return MapRecord{DictId: dictid, UserId: userId, Payload: payload}, nil
}
