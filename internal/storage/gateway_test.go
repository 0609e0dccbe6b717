package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"catalogsync/internal/catalog"
)

type fakeGateway struct{ closed int }

func (f *fakeGateway) Exec(ctx context.Context, sql string) error { return nil }
func (f *fakeGateway) Columns(ctx context.Context, table string) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}
func (f *fakeGateway) Write(ctx context.Context, st catalog.Statement) (int64, error) { return 1, nil }
func (f *fakeGateway) Dialect() catalog.Dialect { return catalog.Postgres }
func (f *fakeGateway) Close() { f.closed++ }

func TestNew_UsesRegisteredFactory(t *testing.T) {
	want := &fakeGateway{}
	var gotDSN string
	Register("fake-new", func(ctx context.Context, cfg Config) (Gateway, error) {
		gotDSN = cfg.DSN
		return want, nil
	})

	gw, err := New(context.Background(), Config{Kind: "fake-new", DSN: "mem://x"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if gw != want {
		t.Fatalf("New returned a different gateway")
	}
	if gotDSN != "mem://x" {
		t.Fatalf("factory DSN=%q", gotDSN)
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for empty kind")
	}

	_, err := New(context.Background(), Config{Kind: "nope"})
	if err == nil || !strings.Contains(err.Error(), "unsupported storage.kind=nope") {
		t.Fatalf("unexpected error: %v", err)
	}

	boom := errors.New("boom")
	Register("fake-err", func(ctx context.Context, cfg Config) (Gateway, error) { return nil, boom })
	if _, err := New(context.Background(), Config{Kind: "fake-err"}); !errors.Is(err, boom) {
		t.Fatalf("expected factory error, got %v", err)
	}
}

func TestRegister_Panics(t *testing.T) {
	f := func(ctx context.Context, cfg Config) (Gateway, error) { return &fakeGateway{}, nil }
	Register("fake-dup", f)

	tests := []struct {
		name string
		kind string
		f    Factory
	}{
		{"empty kind", "", f},
		{"nil factory", "fake-nil", nil},
		{"duplicate", "fake-dup", f},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic")
				}
			}()
			Register(tt.kind, tt.f)
		})
	}
}

func TestKinds_Sorted(t *testing.T) {
	f := func(ctx context.Context, cfg Config) (Gateway, error) { return &fakeGateway{}, nil }
	Register("zz-kind", f)
	Register("aa-kind", f)

	kinds := Kinds()
	ia, iz := -1, -1
	for i, k := range kinds {
		switch k {
		case "aa-kind":
			ia = i
		case "zz-kind":
			iz = i
		}
	}
	if ia < 0 || iz < 0 || ia > iz {
		t.Fatalf("kinds not sorted or missing: %v", kinds)
	}
}
