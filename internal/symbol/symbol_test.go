package symbol

import "testing"

func TestInternIdentity(t *testing.T) {
	tab := New()
	tests := []struct {
		name string
		a, b string
	}{
		{"plain word", "foo", "foo"},
		{"dotted atom", "a.b", "a.b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s1 := tab.Intern(tt.a)
			s2 := tab.Intern(tt.b)
			if s1 != s2 {
				t.Fatalf("Intern(%q) returned distinct pointers", tt.a)
			}
		})
	}
}

func TestFlagsForSequenceAtoms(t *testing.T) {
	tab := New()
	sym := tab.Intern("a.b")
	if !sym.Has(FlagNoDot) {
		t.Fatalf("expected FlagNoDot on %q", sym)
	}
	plain := tab.Intern("foo")
	if plain.Has(FlagNoDot) {
		t.Fatalf("did not expect FlagNoDot on plain word")
	}
}

func TestLookupMissing(t *testing.T) {
	tab := New()
	if _, ok := tab.Lookup("never-interned"); ok {
		t.Fatalf("expected miss")
	}
	tab.Intern("never-interned")
	if _, ok := tab.Lookup("never-interned"); !ok {
		t.Fatalf("expected hit after intern")
	}
}
