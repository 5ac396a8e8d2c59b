package mocks

import (
	"fmt"
	"securegluco/gluco/defs"
	"sync"
)

type Messager struct {
	Channels map[string][]defs.MessageData
	Err      error

	mu sync.Mutex
}

func NewMessager() *Messager {
	return &Messager{Channels: make(map[string][]defs.MessageData)}
}

func (m *Messager) SendMessage(msgData defs.MessageData, chName string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return 0, fmt.Errorf("unable to send message: %w", m.Err)
	}
	m.Channels[chName] = append(m.Channels[chName], msgData)
	return uint64(len(m.Channels[chName])), nil
}

func (m *Messager) Messages(chName string) []defs.MessageData {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]defs.MessageData, len(m.Channels[chName]))
	copy(out, m.Channels[chName])
	return out
}
