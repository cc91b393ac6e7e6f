package ipnet

import "testing"

func TestFromStrings(t *testing.T) {
	tests := []struct {
		name    string
		ip      string
		length  string
		want    string
		wantErr bool
	}{
		{"class a", "10.0.0.5", "8", "10.0.0.0/8", false},
		{"exact host", "10.1.2.3", "32", "10.1.2.3/32", false},
		{"zero length", "10.1.2.3", "0", "0.0.0.0/0", false},
		{"bad octet", "10.1.2.999", "8", "", true},
		{"not dotted quad", "not-an-ip", "8", "", true},
		{"too few octets", "10.1.2", "8", "", true},
		{"length out of range", "10.0.0.0", "33", "", true},
		{"length negative", "10.0.0.0", "-1", "", true},
		{"length not numeric", "10.0.0.0", "abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromStrings(tt.ip, tt.length)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got prefix %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("String() = %q, want %q", got.String(), tt.want)
			}
		})
	}
}

func TestCanonicalisation(t *testing.T) {
	// 10.1.2.3/8 should canonicalise to 10.0.0.0/8 (low 24 bits zeroed).
	p, err := FromDotted("10.1.2.3", 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.String() != "10.0.0.0/8" {
		t.Errorf("got %q, want 10.0.0.0/8", p.String())
	}
}

func TestRoundTrip(t *testing.T) {
	// Property 8: Prefix(N, L).toString parsed back yields an identical prefix.
	inputs := []struct{ ip, length string }{
		{"0.0.0.0", "0"},
		{"10.0.0.0", "8"},
		{"172.16.0.0", "12"},
		{"255.255.255.255", "32"},
	}
	for _, in := range inputs {
		p, err := FromStrings(in.ip, in.length)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		parts := p.String()
		ipPart, lenPart := splitCIDR(parts)
		q, err := FromStrings(ipPart, lenPart)
		if err != nil {
			t.Fatalf("unexpected error re-parsing %q: %v", parts, err)
		}
		if !p.Identical(q) {
			t.Errorf("round-trip mismatch: %v != %v", p, q)
		}
	}
}

func splitCIDR(s string) (string, string) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}

func TestIncludesSubsetIdentical(t *testing.T) {
	a, _ := FromStrings("10.0.0.0", "8")
	b, _ := FromStrings("10.1.0.0", "16")
	c, _ := FromStrings("11.0.0.0", "8")

	if !a.Includes(b) {
		t.Errorf("expected %v to include %v", a, b)
	}
	if a.Includes(c) {
		t.Errorf("expected %v to not include %v", a, c)
	}
	if !b.SubsetOf(a) {
		t.Errorf("expected %v subsetOf %v", b, a)
	}
	if a.SubsetOf(b) {
		t.Errorf("did not expect %v subsetOf %v", a, b)
	}
	if !a.SubsetOf(a) {
		t.Errorf("identical prefixes should be subsets of each other")
	}
	if !a.Identical(a) {
		t.Errorf("expected identity")
	}
	if a.Identical(b) {
		t.Errorf("did not expect identity")
	}
}
