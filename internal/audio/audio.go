// Package audio plays short PCM cues (16-bit mono) alongside the eyes.
package audio

import (
	"sync"
)

// Output is a PCM sink.
type Output interface {
	Init(sampleRate int) error
	Start() error
	Stop()
	// WriteSamples queues samples and returns how many were accepted.
	WriteSamples(samples []int16) int
}

// Null accepts and discards everything. It counts what it was given.
type Null struct {
	mu      sync.Mutex
	rate    int
	written int
}

func (n *Null) Init(sampleRate int) error {
	n.mu.Lock()
	n.rate = sampleRate
	n.mu.Unlock()
	return nil
}

func (n *Null) Start() error { return nil }
func (n *Null) Stop()        {}

func (n *Null) WriteSamples(samples []int16) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.written += len(samples)
	return len(samples)
}

// Written is the total number of samples accepted.
func (n *Null) Written() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.written
}
