package correlate

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/errgroup"

	"github.com/opensciencegrid/xrootd-monitoring-shoveler/wire"
)

// DefaultCleanDelay is the minimum time a freed identity remains resolvable.
const DefaultCleanDelay = 30 * time.Second

// Store holds the server, user and access identity tables and applies
// deferred deletion. A Store is instance-scoped: callers create one per
// pipeline and Stop it on shutdown.
type Store struct {
	cleanDelay time.Duration

	servers   *ttlcache.Cache[ServerKey, ServerInfo]
	users     *ttlcache.Cache[DictKey, UserInfo]
	accesses  *ttlcache.Cache[DictKey, PathAccessInfo]

	mu       sync.Mutex
	byHostPort map[hostPort]ServerKey

	group  *errgroup.Group
	cancel context.CancelFunc
}

// NewStore constructs a Store whose freed entries remain resolvable for at
// least cleanDelay.
func NewStore(cleanDelay time.Duration) *Store {
	if cleanDelay <= 0 {
		cleanDelay = DefaultCleanDelay
	}
	s := &Store{
		cleanDelay: cleanDelay,
		servers:    ttlcache.New[ServerKey, ServerInfo](ttlcache.WithTTL[ServerKey, ServerInfo](ttlcache.NoTTL)),
		users:      ttlcache.New[DictKey, UserInfo](ttlcache.WithTTL[DictKey, UserInfo](ttlcache.NoTTL)),
		accesses:   ttlcache.New[DictKey, PathAccessInfo](ttlcache.WithTTL[DictKey, PathAccessInfo](ttlcache.NoTTL)),
		byHostPort: make(map[hostPort]ServerKey),
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	s.group = g
	g.Go(func() error { s.servers.Start(); return nil })
	g.Go(func() error { s.users.Start(); return nil })
	g.Go(func() error { s.accesses.Start(); return nil })
	g.Go(func() error {
		<-gctx.Done()
		s.servers.Stop()
		s.users.Stop()
		s.accesses.Stop()
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				s.reportSizes()
			}
		}
	})

	return s
}

// Stop halts the background eviction goroutines and blocks until they have
// exited.
func (s *Store) Stop() {
	s.cancel()
	_ = s.group.Wait()
}

// IngestSrvInfo installs a new ServerInfo, scheduling the prior occupant of
// the same (host, port) for deferred deletion if one exists.
func (s *Store) IngestSrvInfo(stod int32, dictid uint32, userid wire.UserId, info wire.SrvInfo) ServerInfo {
	key := ServerKey{Stod: stod, Sid: userid.Sid}
	hp := hostPort{Host: userid.Host, Port: info.Port}

	s.mu.Lock()
	if old, ok := s.byHostPort[hp]; ok && old != key {
		log.WithField("server", old).Debug("correlate: server replaced, scheduling eviction")
		if item := s.servers.Get(old); item != nil {
			s.servers.Set(old, item.Value(), s.cleanDelay)
		}
	}
	s.byHostPort[hp] = key
	s.mu.Unlock()

	server := ServerInfo{
		Stod:     stod,
		Sid:      userid.Sid,
		Protocol: userid.Protocol,
		User:     userid.Username,
		Pid:      userid.Pid,
		Host:     userid.Host,
		Port:     info.Port,
		Program:  info.Program,
		Version:  info.Version,
		Instance: info.Instance,
		Site:     info.Site,
	}
	s.servers.Set(key, server, ttlcache.NoTTL)
	return server
}

// IngestAuthInfo installs a UserInfo at (stod, dictid), resolving its
// server by (stod, userid.sid).
func (s *Store) IngestAuthInfo(stod int32, dictid uint32, userid wire.UserId, auth wire.AuthInfo) (UserInfo, error) {
	skey := ServerKey{Stod: stod, Sid: userid.Sid}
	if item := s.servers.Get(skey); item == nil {
		return UserInfo{}, ErrNotFound
	}
	u := UserInfo{Client: userid, ServerID: skey, Auth: auth}
	s.users.Set(DictKey{Stod: stod, DictId: dictid}, u, ttlcache.NoTTL)
	return u, nil
}

// IngestPath installs a PathAccessInfo at (stod, dictid), resolving its
// server by (stod, userid.sid).
func (s *Store) IngestPath(stod int32, dictid uint32, userid wire.UserId, path wire.Path) (PathAccessInfo, error) {
	skey := ServerKey{Stod: stod, Sid: userid.Sid}
	if item := s.servers.Get(skey); item == nil {
		return PathAccessInfo{}, ErrNotFound
	}
	client := userid
	a := PathAccessInfo{Client: &client, ServerID: skey, Path: path.Path}
	s.accesses.Set(DictKey{Stod: stod, DictId: dictid}, a, ttlcache.NoTTL)
	return a, nil
}

// GetServer resolves a ServerInfo by (stod, sid).
func (s *Store) GetServer(stod int32, sid int) (ServerInfo, error) {
	item := s.servers.Get(ServerKey{Stod: stod, Sid: sid})
	if item == nil {
		return ServerInfo{}, ErrNotFound
	}
	return item.Value(), nil
}

// GetUser resolves a UserInfo by (stod, dictid).
func (s *Store) GetUser(stod int32, dictid uint32) (UserInfo, error) {
	item := s.users.Get(DictKey{Stod: stod, DictId: dictid})
	if item == nil {
		return UserInfo{}, ErrNotFound
	}
	return item.Value(), nil
}

// GetAccess resolves a PathAccessInfo by (stod, dictid).
func (s *Store) GetAccess(stod int32, dictid uint32) (PathAccessInfo, error) {
	item := s.accesses.Get(DictKey{Stod: stod, DictId: dictid})
	if item == nil {
		return PathAccessInfo{}, ErrNotFound
	}
	return item.Value(), nil
}

// SetAccess creates an access entry from an inline fstat Open record. When
// userDictID is non-zero, client/auth are inherited from the existing
// UserInfo at that dictid.
func (s *Store) SetAccess(server ServerInfo, dictid uint32, userDictID uint32, lfn []byte) PathAccessInfo {
	a := PathAccessInfo{
		ServerID: ServerKey{Stod: server.Stod, Sid: server.Sid},
		Path:     lfn,
	}
	if userDictID > 0 {
		if u, err := s.GetUser(server.Stod, userDictID); err == nil {
			client := u.Client
			a.Client = &client
			auth := u.Auth
			a.Auth = &auth
		}
	}
	s.accesses.Set(DictKey{Stod: server.Stod, DictId: dictid}, a, ttlcache.NoTTL)
	return a
}

// FreeUser enqueues deferred deletion of a UserInfo.
func (s *Store) FreeUser(stod int32, dictid uint32) {
	key := DictKey{Stod: stod, DictId: dictid}
	if item := s.users.Get(key); item != nil {
		s.users.Set(key, item.Value(), s.cleanDelay)
	}
}

// FreeAccess enqueues deferred deletion of a PathAccessInfo.
func (s *Store) FreeAccess(stod int32, dictid uint32) {
	key := DictKey{Stod: stod, DictId: dictid}
	if item := s.accesses.Get(key); item != nil {
		s.accesses.Set(key, item.Value(), s.cleanDelay)
	}
}

// Sizes reports the current occupancy of the three tables, for metrics.
func (s *Store) Sizes() (servers, users, accesses int) {
	return s.servers.Len(), s.users.Len(), s.accesses.Len()
}
