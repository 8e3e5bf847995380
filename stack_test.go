package dbus

import "testing"

func TestStack(t *testing.T) {
	var s stack[int]
	if _, ok := s.Pop(); ok {
		t.Fatal("Pop on empty stack succeeded")
	}
	for i := range maxContainerDepth {
		if err := s.Push(i); err != nil {
			t.Fatalf("Push(%d) got err: %v", i, err)
		}
	}
	if !s.Full() {
		t.Fatal("stack not full after maxContainerDepth pushes")
	}
	if err := s.Push(-1); err == nil {
		t.Fatal("Push on full stack succeeded")
	}
	for i := maxContainerDepth - 1; i >= 0; i-- {
		got, ok := s.Pop()
		if !ok || got != i {
			t.Fatalf("Pop() = %d, %v, want %d, true", got, ok, i)
		}
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %d after popping everything", s.Len())
	}
}
