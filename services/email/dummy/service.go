package dummymail

import (
	"sync"

	"github.com/escolarhq/escolar/core"
)

// Service records sent messages in memory; tests use it.
type Service struct {
	mu       sync.Mutex
	messages []*core.EmailMessage
}

var _ core.EmailService = (*Service)(nil)

func NewService() *Service {
	return &Service{}
}

func (svc *Service) SendMessages(messages ...*core.EmailMessage) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	for _, msg := range messages {
		_ = msg.Render()
		svc.messages = append(svc.messages, msg)
	}
}

func (svc *Service) SentMessages() []*core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	return append([]*core.EmailMessage(nil), svc.messages...)
}
