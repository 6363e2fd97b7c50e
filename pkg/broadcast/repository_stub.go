package broadcast

import (
	"context"
	"fmt"
	"sync"
)

type RepositoryStub struct {
	mu         sync.Mutex
	broadcasts map[int]Broadcast
	deliveries []Delivery
	nextId     int
	err        error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{broadcasts: make(map[int]Broadcast)}
}

func (r *RepositoryStub) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *RepositoryStub) Create(ctx context.Context, b Broadcast) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	r.nextId++
	b.Id = r.nextId
	b.Status = StatusPending
	r.broadcasts[b.Id] = b
	return b.Id, nil
}

func (r *RepositoryStub) MarkSending(ctx context.Context, id int, reportMessageId int) error {
	return r.update(id, func(b *Broadcast) {
		b.Status = StatusSending
		b.FinalReportMessageId = reportMessageId
	})
}

func (r *RepositoryStub) Finish(ctx context.Context, id int, report Report) error {
	return r.update(id, func(b *Broadcast) {
		b.Status = report.Status()
		b.SuccessCount = report.Succeeded
		b.FailCount = report.Failed
	})
}

func (r *RepositoryStub) update(id int, fn func(b *Broadcast)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	b, ok := r.broadcasts[id]
	if !ok {
		return fmt.Errorf("broadcast %d not found", id)
	}
	fn(&b)
	r.broadcasts[id] = b
	return nil
}

func (r *RepositoryStub) LogDelivery(ctx context.Context, d Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.deliveries = append(r.deliveries, d)
	return nil
}

func (r *RepositoryStub) Get(ctx context.Context, id int) (Broadcast, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.broadcasts[id]
	if !ok {
		return Broadcast{}, fmt.Errorf("broadcast %d not found", id)
	}
	return b, nil
}

func (r *RepositoryStub) Deliveries() []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Delivery(nil), r.deliveries...)
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts = make(map[int]Broadcast)
	r.deliveries = nil
	r.nextId = 0
	r.err = nil
}
