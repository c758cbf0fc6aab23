package wlcg

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opensciencegrid/xrootd-monitoring-shoveler/correlate"
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/mapper"
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/wire"
)

func TestIsWLCGCandidate(t *testing.T) {
	tests := []struct {
		name     string
		voName   string
		expected bool
	}{
		{"cms VO is a candidate", "cms", true},
		{"cms VO case insensitive", "CMS", true},
		{"store bucket is a candidate", "/store", true},
		{"store user bucket is a candidate", "/store/user", true},
		{"dteam user bucket is a candidate", "/user/dteam", true},
		{"unrelated bucket is not a candidate", "/osgconnect/public", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsWLCGCandidate(tt.voName))
		})
	}
}

func TestFromCloseRejectsNonCandidate(t *testing.T) {
	_, ok := FromClose(mapper.Close{VOName: "/osgconnect/public"})
	assert.False(t, ok)
}

func TestFromCloseConvertsQualifyingEvent(t *testing.T) {
	ev := mapper.Close{
		Server: correlate.ServerInfo{Host: "xrootd.example.org", Site: "T2_US_Example"},
		Client: &wire.UserId{Host: "client.example.org"},
		Lfn:    []byte("/store/user/cms/file.root"),
		Read:   100,
		Write:  0,
		VOName: "/store/user",
	}
	r, ok := FromClose(ev)
	assert.True(t, ok)
	assert.Equal(t, "xrootd.example.org", r.ServerHost)
	assert.Equal(t, "example.org", r.ServerDomain)
	assert.Equal(t, "client.example.org", r.ClientHost)
	assert.Equal(t, "/store/user/cms/file.root", r.FileLFN)
	assert.Equal(t, "read", r.Operation)
	assert.Equal(t, int64(100), r.ReadBytes)
	assert.NotEmpty(t, r.UniqueID)
}

func TestFromTransferConvertsQualifyingEvent(t *testing.T) {
	ev := mapper.Transfer{
		Server: correlate.ServerInfo{Site: "T2_US_Example"},
		Lfn:    []byte("/store/data.root"),
		Write:  50,
		VOName: "cms",
	}
	r, ok := FromTransfer(ev)
	assert.True(t, ok)
	assert.Equal(t, "write", r.Operation)
	assert.Equal(t, int64(50), r.WriteBytes)
}
