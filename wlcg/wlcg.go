// Package wlcg converts mapped close/transfer events into the WLCG generic
// file-access monitoring JSON schema, for sites that forward a CMS-flavored
// feed alongside the raw mapped stream.
//
// Format documented at: https://twiki.cern.ch/twiki/bin/view/Main/GenericFileMonitoring
package wlcg

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opensciencegrid/xrootd-monitoring-shoveler/correlate"
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/mapper"
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/wire"
)

// Record is a single WLCG-formatted file access record.
type Record struct {
	SiteName        string `json:"site_name"`
	Fallback        bool   `json:"fallback"`
	UserDN          string `json:"user_dn"`
	User            string `json:"user,omitempty"`
	ClientHost      string `json:"client_host"`
	ClientDomain    string `json:"client_domain"`
	ServerHost      string `json:"server_host"`
	ServerDomain    string `json:"server_domain"`
	ServerIP        string `json:"server_ip"`
	UniqueID        string `json:"unique_id"`
	FileLFN         string `json:"file_lfn"`
	FileSize        int64  `json:"file_size"`
	ReadBytes       int64  `json:"read_bytes"`
	ReadSingleBytes int64  `json:"read_single_bytes"`
	ReadVectorBytes int64  `json:"read_vector_bytes"`
	WriteBytes      int64  `json:"write_bytes"`
	Operation       string `json:"operation"`
	ServerSite      string `json:"server_site"`
	VO              string `json:"vo,omitempty"`

	ReadOperations  int32 `json:"read_operations,omitempty"`
	ReadMin         int32 `json:"read_min,omitempty"`
	ReadMax         int32 `json:"read_max,omitempty"`
	ReadVOperations int32 `json:"read_vector_operations,omitempty"`
	ReadVMin        int32 `json:"read_vector_min,omitempty"`
	ReadVMax        int32 `json:"read_vector_max,omitempty"`
	WriteOperations int32 `json:"write_operations,omitempty"`
	WriteMin        int32 `json:"write_min,omitempty"`
	WriteMax        int32 `json:"write_max,omitempty"`

	Metadata map[string]interface{} `json:"metadata"`
}

// IsWLCGCandidate reports whether a VO bucket (as set on a mapped event's
// VOName) qualifies for WLCG conversion: either the bucket is one of the
// CMS storage conventions, or it names the cms VO itself.
func IsWLCGCandidate(voName string) bool {
	if strings.EqualFold(voName, "cms") {
		return true
	}
	return voName == "/store/user" || voName == "/store" || strings.HasPrefix(voName, "/user/dteam")
}

func serverDomain(host string) string {
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

// FromClose converts a mapper.Close event to a WLCG record. Returns false
// when the event doesn't qualify per IsWLCGCandidate.
func FromClose(ev mapper.Close) (Record, bool) {
	if !IsWLCGCandidate(ev.VOName) {
		return Record{}, false
	}
	r := newRecord(ev.Server, ev.Client, ev.Lfn, ev.VOName)
	r.ReadBytes = ev.Read + ev.Readv
	r.ReadSingleBytes = ev.Read
	r.ReadVectorBytes = ev.Readv
	r.WriteBytes = ev.Write
	r.Operation = operationOf(ev.Read, ev.Readv, ev.Write)
	if ev.Ops != nil {
		r.ReadOperations = ev.Ops.Read
		r.ReadMin = ev.Ops.RdMin
		r.ReadMax = ev.Ops.RdMax
		r.ReadVOperations = ev.Ops.Readv
		r.ReadVMin = ev.Ops.RvMin
		r.ReadVMax = ev.Ops.RvMax
		r.WriteOperations = ev.Ops.Write
		r.WriteMin = ev.Ops.WrMin
		r.WriteMax = ev.Ops.WrMax
	}
	return r, true
}

// FromTransfer converts a mapper.Transfer event to a WLCG record. Returns
// false when the event doesn't qualify per IsWLCGCandidate.
func FromTransfer(ev mapper.Transfer) (Record, bool) {
	if !IsWLCGCandidate(ev.VOName) {
		return Record{}, false
	}
	r := newRecord(ev.Server, ev.Client, ev.Lfn, ev.VOName)
	r.ReadBytes = ev.Read + ev.Readv
	r.ReadSingleBytes = ev.Read
	r.ReadVectorBytes = ev.Readv
	r.WriteBytes = ev.Write
	r.Operation = operationOf(ev.Read, ev.Readv, ev.Write)
	return r, true
}

func operationOf(read, readv, write int64) string {
	switch {
	case read > 0 || readv > 0:
		return "read"
	case write > 0:
		return "write"
	default:
		return "unknown"
	}
}

func newRecord(server correlate.ServerInfo, client *wire.UserId, lfn []byte, voName string) Record {
	var clientHost, clientDomain string
	if client != nil {
		clientHost = client.Host
		clientDomain = serverDomain(client.Host)
	}
	return Record{
		SiteName:     server.Site,
		Fallback:     true,
		ClientHost:   clientHost,
		ClientDomain: clientDomain,
		ServerHost:   server.Host,
		ServerDomain: serverDomain(server.Host),
		UniqueID:     uuid.New().String(),
		FileLFN:      string(lfn),
		ServerSite:   server.Site,
		VO:           voName,
		Metadata:     recordMetadata(),
	}
}

// ToJSON marshals the record in WLCG wire form.
func (r Record) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

func recordMetadata() map[string]interface{} {
	hostname, _ := os.Hostname()
	return map[string]interface{}{
		"producer":    "cms",
		"type":        "aaa-ng",
		"timestamp":   time.Now().UnixNano() / int64(time.Millisecond),
		"type_prefix": "raw",
		"host":        hostname,
	}
}
