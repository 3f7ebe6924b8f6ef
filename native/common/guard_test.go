package common

import (
	"errors"
	"testing"
)

type pauseMap map[string]bool

func (p pauseMap) IsPaused(module string) bool { return p[module] }

func TestGuard(t *testing.T) {
	view := pauseMap{"vaultregistry": true}
	if err := Guard(view, "vaultregistry"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected paused, got %v", err)
	}
	if err := Guard(view, "nomination"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Guard(nil, "vaultregistry"); err != nil {
		t.Fatalf("nil view must not block: %v", err)
	}
	if err := Guard(view, ""); err != nil {
		t.Fatalf("empty module must not block: %v", err)
	}
}
