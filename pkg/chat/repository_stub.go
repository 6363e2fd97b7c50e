package chat

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/weekstatus/weekstatus/internal/event_bus"
)

type RepositoryStub struct {
	mu     sync.RWMutex
	users  map[int64]User
	groups map[int64]Group
	usage  []event_bus.CommandUsed
	err    error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		users:  make(map[int64]User),
		groups: make(map[int64]Group),
	}
}

// FailWith makes every following call return err.
func (r *RepositoryStub) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *RepositoryStub) UpsertUser(ctx context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.users[user.UserId] = user
	return nil
}

func (r *RepositoryStub) UpsertGroup(ctx context.Context, group Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.groups[group.GroupId] = group
	return nil
}

func (r *RepositoryStub) CountUsers(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), r.err
}

func (r *RepositoryStub) CountGroups(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups), r.err
}

func (r *RepositoryStub) TargetIds(ctx context.Context, kind Kind) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.err != nil {
		return nil, r.err
	}
	ids := make([]int64, 0)
	switch kind {
	case Users:
		for _, u := range r.users {
			ids = append(ids, u.ChatId)
		}
	case Groups:
		for id := range r.groups {
			ids = append(ids, id)
		}
	default:
		return nil, fmt.Errorf("unknown target kind %q", kind)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *RepositoryStub) LogUsage(ctx context.Context, usage event_bus.CommandUsed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.usage = append(r.usage, usage)
	return nil
}

func (r *RepositoryStub) User(id int64) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	return u, ok
}

func (r *RepositoryStub) Group(id int64) (Group, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[id]
	return g, ok
}

func (r *RepositoryStub) Usage() []event_bus.CommandUsed {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]event_bus.CommandUsed(nil), r.usage...)
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = make(map[int64]User)
	r.groups = make(map[int64]Group)
	r.usage = nil
	r.err = nil
}
