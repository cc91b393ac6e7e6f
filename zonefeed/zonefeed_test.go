package zonefeed

import (
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	input := strings.Join([]string{
		"# a comment",
		"/ another comment style",
		"",
		"  10.0.0.0 , 8 , a.pac  ",
		"10.1.0.0,16,b.pac",
		"bad, line, with, too, many, fields",
		"999.0.0.0,8,c.pac",
		"10.2.0.0,8",
	}, "\n")

	zones, err := Load(strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(zones) != 2 {
		t.Fatalf("expected 2 valid zones, got %d: %+v", len(zones), zones)
	}
	if zones[0].Prefix.String() != "10.0.0.0/8" || zones[0].TemplateName != "a.pac" {
		t.Errorf("unexpected zone[0]: %+v", zones[0])
	}
	if zones[1].Prefix.String() != "10.1.0.0/16" || zones[1].TemplateName != "b.pac" {
		t.Errorf("unexpected zone[1]: %+v", zones[1])
	}
}

func TestLoadEmptyOnlyComments(t *testing.T) {
	zones, err := Load(strings.NewReader("# nothing here\n\n/also a comment\n"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(zones) != 0 {
		t.Fatalf("expected no zones, got %d", len(zones))
	}
}
