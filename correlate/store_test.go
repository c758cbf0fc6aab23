package correlate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensciencegrid/xrootd-monitoring-shoveler/wire"
)

func TestStoreServerAuthPathLifecycle(t *testing.T) {
	s := NewStore(50 * time.Millisecond)
	defer s.Stop()

	uid := wire.UserId{Sid: 1, Host: "host1"}
	server := s.IngestSrvInfo(1000, 9, uid, wire.SrvInfo{Program: "xrootd", Port: 1094, Site: "T2"})
	assert.Equal(t, "host1", server.Host)
	assert.Equal(t, 1, server.Sid)

	got, err := s.GetServer(1000, 1)
	require.NoError(t, err)
	assert.Equal(t, server, got)

	auth := wire.AuthInfo{DN: "/O=Test/CN=user"}
	u, err := s.IngestAuthInfo(1000, 42, uid, auth)
	require.NoError(t, err)
	assert.Equal(t, auth, u.Auth)

	p := wire.Path{Path: []byte("/store/user/vo/foo")}
	a, err := s.IngestPath(1000, 77, uid, p)
	require.NoError(t, err)
	assert.Equal(t, p.Path, a.Path)

	gotA, err := s.GetAccess(1000, 77)
	require.NoError(t, err)
	assert.Equal(t, a, gotA)
}

func TestStoreAuthInfoUnknownServerFails(t *testing.T) {
	s := NewStore(50 * time.Millisecond)
	defer s.Stop()

	uid := wire.UserId{Sid: 99, Host: "ghost"}
	_, err := s.IngestAuthInfo(1000, 1, uid, wire.AuthInfo{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreServerReplacementSchedulesOldEviction(t *testing.T) {
	s := NewStore(100 * time.Millisecond)
	defer s.Stop()

	uid1 := wire.UserId{Sid: 1, Host: "host1"}
	uid2 := wire.UserId{Sid: 2, Host: "host1"}
	s.IngestSrvInfo(1000, 9, uid1, wire.SrvInfo{Port: 1094})
	s.IngestSrvInfo(2000, 9, uid2, wire.SrvInfo{Port: 1094})

	// Old server (stod 1000, sid 1) should still resolve before clean_delay.
	_, err := s.GetServer(1000, 1)
	assert.NoError(t, err)

	time.Sleep(200 * time.Millisecond)
	_, err = s.GetServer(1000, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreFreeUserDefersDeletion(t *testing.T) {
	s := NewStore(80 * time.Millisecond)
	defer s.Stop()

	uid := wire.UserId{Sid: 1, Host: "host1"}
	s.IngestSrvInfo(1000, 9, uid, wire.SrvInfo{Port: 1094})
	s.IngestAuthInfo(1000, 42, uid, wire.AuthInfo{})

	s.FreeUser(1000, 42)
	_, err := s.GetUser(1000, 42)
	assert.NoError(t, err, "still resolvable immediately after free")

	time.Sleep(150 * time.Millisecond)
	_, err = s.GetUser(1000, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreSetAccessInheritsUser(t *testing.T) {
	s := NewStore(50 * time.Millisecond)
	defer s.Stop()

	uid := wire.UserId{Sid: 1, Host: "host1"}
	server := s.IngestSrvInfo(1000, 9, uid, wire.SrvInfo{Port: 1094})
	s.IngestAuthInfo(1000, 42, uid, wire.AuthInfo{DN: "/CN=test"})

	a := s.SetAccess(server, 555, 42, []byte("/store/user/vo/bar"))
	require.NotNil(t, a.Client)
	assert.Equal(t, uid, *a.Client)

	noUser := s.SetAccess(server, 556, 0, []byte("/store/user/vo/baz"))
	assert.Nil(t, noUser.Client)
}
