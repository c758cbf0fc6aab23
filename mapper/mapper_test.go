package mapper

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensciencegrid/xrootd-monitoring-shoveler/wire"
)

var errExhausted = errors.New("exhausted")

type fakeSource struct {
	packets []wire.Packet
	i       int
}

func (f *fakeSource) Next() (wire.Packet, error) {
	if f.i >= len(f.packets) {
		return wire.Packet{}, errExhausted
	}
	p := f.packets[f.i]
	f.i++
	return p, nil
}

func mapPacket(stod int32, code byte, dictid uint32, uid wire.UserId, payload wire.MapPayload) wire.Packet {
	return wire.Packet{
		Header:  wire.Header{Code: code, Stod: stod},
		Payload: wire.MapRecord{DictId: dictid, UserId: uid, Payload: payload},
	}
}

func drain(t *testing.T, m *Mapper) []Event {
	t.Helper()
	var out []Event
	for {
		ev, err := m.Next()
		if err != nil {
			require.ErrorIs(t, err, errExhausted)
			return out
		}
		out = append(out, ev)
	}
}

func TestMapperServerAndPathIdentity(t *testing.T) {
	uid := wire.UserId{Sid: 1, Host: "host1"}
	src := &fakeSource{packets: []wire.Packet{
		mapPacket(1000, wire.CodeMap, 9, uid, wire.SrvInfo{Port: 1094}),
		mapPacket(1000, wire.CodeDictID, 77, uid, wire.Path{Path: []byte("/store/user/vo/foo")}),
	}}
	m := New(src)
	defer m.Stop()

	events := drain(t, m)
	require.Len(t, events, 2)
	_, ok := events[0].(ServerIdentity)
	assert.True(t, ok)
	access, ok := events[1].(AccessIdentity)
	assert.True(t, ok)
	assert.Equal(t, "/store/user/vo/foo", string(access.Info.Path))
}

func TestMapperFstatOpenCloseWindow(t *testing.T) {
	uid := wire.UserId{Sid: 1, Host: "host1"}
	src := &fakeSource{packets: []wire.Packet{
		mapPacket(1000, wire.CodeMap, 9, uid, wire.SrvInfo{Port: 1094}),
		{
			Header: wire.Header{Code: wire.CodeFstat, Stod: 1000},
			Payload: wire.FstatPacket{
				Tod: wire.FileTOD{Sid: 1, Start: 10, End: 20},
				Records: []wire.FstatRecord{
					wire.FileOPN{FileId: 5, FileSize: 100, HasUser: true, User: 0, Lfn: []byte("/store/user/vo/foo")},
					wire.FileCLS{FileId: 5, Read: 10, Write: 20},
				},
			},
		},
	}}
	m := New(src)
	defer m.Stop()

	events := drain(t, m)
	require.Len(t, events, 2) // ServerIdentity, then one FstatWindow
	fw, ok := events[1].(FstatWindow)
	require.True(t, ok)
	require.Len(t, fw.Events, 2)
	open, ok := fw.Events[0].(Open)
	require.True(t, ok)
	assert.Equal(t, int64(100), open.FileSize)
	assert.Equal(t, "/store/user", open.VOName)
	closeEv, ok := fw.Events[1].(Close)
	require.True(t, ok)
	assert.Equal(t, int64(10), closeEv.Read)
}

func TestMapperFstatUnknownServerDropsPacket(t *testing.T) {
	src := &fakeSource{packets: []wire.Packet{
		{
			Header: wire.Header{Code: wire.CodeFstat, Stod: 1000},
			Payload: wire.FstatPacket{
				Tod:     wire.FileTOD{Sid: 99},
				Records: []wire.FstatRecord{wire.FileDSC{DictId: 1}},
			},
		},
	}}
	m := New(src)
	defer m.Stop()

	_, err := m.Next()
	assert.ErrorIs(t, err, errExhausted)
}

func TestMapperTraceWindowGrouping(t *testing.T) {
	uid := wire.UserId{Sid: 1, Host: "host1"}
	src := &fakeSource{packets: []wire.Packet{
		mapPacket(1000, wire.CodeMap, 9, uid, wire.SrvInfo{Port: 1094}),
		mapPacket(1000, wire.CodeDictID, 5, uid, wire.Path{Path: []byte("/foo")}),
		{
			Header: wire.Header{Code: wire.CodeTrace, Stod: 1000},
			Payload: wire.TracePacket{Groups: []wire.TraceWindowGroup{
				{
					Mark: wire.TraceWindowMark{Sid: 1, Start: 10, End: 15},
					Records: []wire.TraceRecord{
						wire.TraceReadWrite{DictId: 5, ReadLen: 1024},
					},
				},
				{Mark: wire.TraceWindowMark{Sid: 1, Start: 15, End: 20}},
			}},
		},
	}}
	m := New(src)
	defer m.Stop()

	events := drain(t, m)
	require.Len(t, events, 3) // ServerIdentity, AccessIdentity, TraceWindow
	tw, ok := events[2].(TraceWindow)
	require.True(t, ok)
	assert.EqualValues(t, 10, tw.Start)
	assert.EqualValues(t, 20, tw.End)
	require.Len(t, tw.Events, 1)
	rw, ok := tw.Events[0].(ReadWriteEvent)
	require.True(t, ok)
	assert.EqualValues(t, 1024, rw.ReadLen)
}

func TestMapperBurrRedirWindow(t *testing.T) {
	uid := wire.UserId{Sid: 1, Host: "host1"}
	src := &fakeSource{packets: []wire.Packet{
		mapPacket(1000, wire.CodeMap, 9, uid, wire.SrvInfo{Port: 1094}),
		mapPacket(1000, wire.CodeUser, 42, uid, wire.AuthInfo{DN: "/CN=test"}),
		{
			Header: wire.Header{Code: wire.CodeRedir, Stod: 1000},
			Payload: wire.BurrPacket{
				Sid: wire.BurrServerIdent{Sid: 1},
				Entries: []wire.BurrEntry{
					wire.BurrWindowMark{Timestamp: 100},
					wire.BurrRedirect{Action: wire.RedirActionCmsd, DictId: 42, Target: []byte("other.example"), Port: 1094, Path: []byte("/x")},
					wire.BurrWindowMark{Timestamp: 160, PrevDuration: 60},
				},
			},
		},
	}}
	m := New(src)
	defer m.Stop()

	events := drain(t, m)
	require.Len(t, events, 3) // ServerIdentity, UserIdentity, RedirWindow
	rw, ok := events[2].(RedirWindow)
	require.True(t, ok)
	assert.EqualValues(t, 100, rw.Start)
	assert.EqualValues(t, 160, rw.End)
	require.Len(t, rw.Events, 1)
	redir, ok := rw.Events[0].(Redirection)
	require.True(t, ok)
	assert.Equal(t, wire.RedirActionCmsd, redir.Action)
}

func TestMapperPluginPassthrough(t *testing.T) {
	src := &fakeSource{packets: []wire.Packet{
		{
			Header: wire.Header{Code: wire.CodeGStream, Stod: 1000},
			Payload: wire.PluginPacket{
				TBeg:     1,
				TEnd:     2,
				Provider: wire.ProviderPFC,
				Lines:    []wire.PluginLine{{Fields: map[string]string{"k": "v"}}},
			},
		},
	}}
	m := New(src, WithCleanDelay(time.Second))
	defer m.Stop()

	events := drain(t, m)
	require.Len(t, events, 1)
	pr, ok := events[0].(PluginRecord)
	require.True(t, ok)
	assert.Equal(t, wire.ProviderPFC, pr.Provider)
}
