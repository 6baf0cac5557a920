package provider

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/stridewell/healthsync/pkg/types"
)

type noopProvider struct {
	name   string
	userID string
}

func (p *noopProvider) Name() string                         { return p.name }
func (p *noopProvider) IsAvailable(ctx context.Context) bool { return true }
func (p *noopProvider) RequestAuthorization(ctx context.Context, categories []types.SampleCategory) ([]types.SampleCategory, error) {
	return categories, nil
}
func (p *noopProvider) QuerySamples(ctx context.Context, r types.DateRange) ([]types.HealthSample, error) {
	return nil, nil
}

func TestRegistry_NewBindsUser(t *testing.T) {
	ClearRegistry()
	t.Cleanup(ClearRegistry)

	Register("alpha", func(userID string) HealthProvider {
		return &noopProvider{name: "alpha", userID: userID}
	})

	p, err := New("alpha", "user-1")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	np, ok := p.(*noopProvider)
	if !ok {
		t.Fatalf("expected *noopProvider, got %T", p)
	}
	if np.userID != "user-1" {
		t.Errorf("expected factory to receive user-1, got %q", np.userID)
	}
}

func TestRegistry_UnknownProvider(t *testing.T) {
	ClearRegistry()
	t.Cleanup(ClearRegistry)

	_, err := New("nope", "user-1")
	if err == nil || !strings.Contains(err.Error(), `unknown provider "nope"`) {
		t.Errorf("expected unknown provider error, got %v", err)
	}
}

func TestRegistry_Names(t *testing.T) {
	ClearRegistry()
	t.Cleanup(ClearRegistry)

	Register("beta", func(userID string) HealthProvider { return &noopProvider{name: "beta"} })
	Register("alpha", func(userID string) HealthProvider { return &noopProvider{name: "alpha"} })

	names := Names()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("expected [alpha beta], got %v", names)
	}
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	ClearRegistry()
	t.Cleanup(ClearRegistry)

	Register("alpha", func(userID string) HealthProvider { return &noopProvider{name: "alpha"} })

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	Register("alpha", func(userID string) HealthProvider { return &noopProvider{name: "alpha"} })
}
