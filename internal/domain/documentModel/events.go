package documentModel

import "sync"

// Domain events are in-process notifications for optional side effects
// (metrics, notifications). This is an observer list, not a message bus.

type Event interface {
	Name() string
}

type DocumentCreated struct {
	DocumentId string
	OwnerId    string
}

func (DocumentCreated) Name() string { return "document.created" }

type DocumentProcessed struct {
	DocumentId string
	ChunkCount int
}

func (DocumentProcessed) Name() string { return "document.processed" }

type Publisher struct {
	mu          sync.RWMutex
	subscribers []func(Event)
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Subscribe(fn func(Event)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, fn)
}

func (p *Publisher) Publish(events ...Event) {
	p.mu.RLock()
	subs := p.subscribers
	p.mu.RUnlock()
	for _, e := range events {
		for _, fn := range subs {
			fn(e)
		}
	}
}
