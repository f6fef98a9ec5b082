package probe

import (
	"errors"
	"testing"

	"github.com/hamed0406/hostsentry/internal/cmdexec"
	"github.com/hamed0406/hostsentry/internal/domain"
	"github.com/hamed0406/hostsentry/internal/platform"
)

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	probe := &Hardware{Sensors: fixedSource{}}
	_, err := NewRegistry(
		Entry{ID: "a", Name: "A", Probe: probe},
		Entry{ID: "a", Name: "A again", Probe: probe},
	)
	if err == nil {
		t.Fatal("want error for duplicate id")
	}
}

func TestNewRegistry_RejectsIncompleteEntries(t *testing.T) {
	if _, err := NewRegistry(Entry{ID: "a"}); err == nil {
		t.Fatal("want error for nil probe")
	}
	if _, err := NewRegistry(Entry{Probe: &Hardware{}}); err == nil {
		t.Fatal("want error for empty id")
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	reg, err := NewRegistry(Entry{ID: "a", Name: "A", Probe: &Hardware{Sensors: fixedSource{}}})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if _, err := reg.Get("nope"); !errors.Is(err, ErrUnknownCheck) {
		t.Fatalf("Get(nope) = %v, want ErrUnknownCheck", err)
	}
}

func TestEntryStamp(t *testing.T) {
	e := Entry{ID: "ssh", Name: "SSH configuration", Description: "d", Category: domain.CategorySecurity}
	r := domain.Report{Status: domain.StatusPass}
	e.Stamp(&r)
	if r.ID != "ssh" || r.Name != "SSH configuration" || r.Category != domain.CategorySecurity {
		t.Fatalf("stamped report wrong: %+v", r)
	}
}

func TestDefaultRegistry_OrderAndIDs(t *testing.T) {
	reg, err := DefaultRegistry(cmdexec.NewFake(), platform.Platform{OS: "linux"}, fixedSource{})
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}
	want := []string{"firewall", "open-ports", "ssh", "permissions", "services", "network", "updates", "hardware", "gateway"}
	entries := reg.Entries()
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, id := range want {
		if entries[i].ID != id {
			t.Fatalf("entry %d = %q, want %q", i, entries[i].ID, id)
		}
		if entries[i].Name == "" || entries[i].Description == "" || entries[i].Category == "" {
			t.Fatalf("entry %q missing identity fields: %+v", id, entries[i])
		}
	}
}
