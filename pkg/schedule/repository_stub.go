package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/weekstatus/weekstatus/pkg/week_parity"
)

type RepositoryStub struct {
	mu        sync.Mutex
	schedules map[int64]UserSchedule
	updatedAt map[int64]time.Time
	err       error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		schedules: make(map[int64]UserSchedule),
		updatedAt: make(map[int64]time.Time),
	}
}

func (r *RepositoryStub) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// WithTransaction restores the previous state when fn fails.
func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.mu.Lock()
	snapshot := make(map[int64]UserSchedule, len(r.schedules))
	for id, s := range r.schedules {
		snapshot[id] = UserSchedule{Odd: s.Odd.clone(), Even: s.Even.clone()}
	}
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.schedules = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *RepositoryStub) Get(ctx context.Context, userId int64) (UserSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return UserSchedule{}, r.err
	}
	s, ok := r.schedules[userId]
	if !ok {
		return UserSchedule{Odd: Week{}, Even: Week{}}, nil
	}
	return UserSchedule{Odd: s.Odd.clone(), Even: s.Even.clone()}, nil
}

func (r *RepositoryStub) SaveWeek(ctx context.Context, userId int64, parity week_parity.Parity, week Week, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	s, ok := r.schedules[userId]
	if !ok {
		s = UserSchedule{Odd: Week{}, Even: Week{}}
	}
	if parity == week_parity.Even {
		s.Even = week.clone()
	} else {
		s.Odd = week.clone()
	}
	r.schedules[userId] = s
	r.updatedAt[userId] = updatedAt
	return nil
}

func (r *RepositoryStub) UpdatedAt(userId int64) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updatedAt[userId]
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules = make(map[int64]UserSchedule)
	r.updatedAt = make(map[int64]time.Time)
	r.err = nil
}
