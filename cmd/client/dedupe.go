package main

import (
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
)

// MessageBuffer remembers the last few final transcripts so that a
// provider re-finalizing the same utterance is printed once.
type MessageBuffer struct {
	mu       sync.RWMutex
	messages []string
	head     int
	size     int
}

func NewMessageBuffer(capacity int) *MessageBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &MessageBuffer{messages: make([]string, capacity)}
}

// Add records message, evicting the oldest entry when full.
func (mb *MessageBuffer) Add(message string) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	mb.messages[mb.head] = normalizeMessage(message)
	mb.head = (mb.head + 1) % len(mb.messages)
	if mb.size < len(mb.messages) {
		mb.size++
	}
}

// IsSimilar reports whether any remembered message is at least threshold
// similar to message.
func (mb *MessageBuffer) IsSimilar(message string, threshold float64) bool {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	msg := normalizeMessage(message)
	for i := 0; i < mb.size; i++ {
		if similarity(msg, mb.messages[i]) >= threshold {
			return true
		}
	}
	return false
}

func normalizeMessage(msg string) string {
	return strings.ToLower(strings.Join(strings.Fields(msg), " "))
}

// similarity is 1 minus the edit distance relative to the longer string.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	maxLen := max(len(a), len(b))
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
}
