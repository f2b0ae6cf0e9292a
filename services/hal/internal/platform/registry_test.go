package platform

import (
	"errors"
	"testing"

	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/core"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/halerr"
)

type fakeLine struct{ pin int }

func (fakeLine) ConfigureInput() error      { return nil }
func (fakeLine) ConfigureOutput(bool) error { return nil }
func (fakeLine) Set(bool)                   {}
func (fakeLine) Get() bool                  { return true }

func countingRegistry(opens *int) *Registry {
	return NewRegistry(func(pin int) (core.Line, error) {
		if pin > 27 {
			return nil, halerr.ErrUnknownPin
		}
		*opens++
		return &fakeLine{pin: pin}, nil
	})
}

func TestRegistry_ClaimAndRelease(t *testing.T) {
	var opens int
	r := countingRegistry(&opens)

	a, err := r.ClaimLine("a", 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.ClaimLine("b", 4); !errors.Is(err, halerr.ErrPinInUse) {
		t.Fatalf("second owner: err=%v", err)
	}
	// Re-claiming by the owner is allowed.
	if again, err := r.ClaimLine("a", 4); err != nil || again != a {
		t.Fatalf("owner re-claim: %v %v", again, err)
	}
	if id, ok := r.Owner(4); !ok || id != "a" {
		t.Fatalf("owner=%q ok=%v", id, ok)
	}

	r.ReleaseLine("b", 4) // not the owner; ignored
	if _, ok := r.Owner(4); !ok {
		t.Fatal("release by non-owner freed the pin")
	}
	r.ReleaseLine("a", 4)
	b, err := r.ClaimLine("b", 4)
	if err != nil {
		t.Fatal(err)
	}
	if b != a || opens != 1 {
		t.Fatalf("line reopened: opens=%d", opens)
	}
}

func TestRegistry_UnknownPin(t *testing.T) {
	var opens int
	r := countingRegistry(&opens)
	if _, err := r.ClaimLine("a", 99); !errors.Is(err, halerr.ErrUnknownPin) {
		t.Fatalf("err=%v", err)
	}
	if _, ok := r.Owner(99); ok {
		t.Fatal("failed claim recorded an owner")
	}
}
