package convert_test

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/mrwong99/interactink/pkg/interactink/convert"
)

func TestDecodeTimeSpanUnitAliases(t *testing.T) {
	t.Parallel()

	aliases, err := convert.DecodeTimeSpanUnitAliases(strings.NewReader("round: 6s\nturn: 6s\nday: 24h\n"))
	if err != nil {
		t.Fatalf("DecodeTimeSpanUnitAliases: unexpected error: %v", err)
	}
	if len(aliases) != 3 {
		t.Fatalf("aliases = %v, want 3 entries", aliases)
	}
}

func TestDecodeTimeSpanUnitAliases_RejectsNonMapping(t *testing.T) {
	t.Parallel()

	_, err := convert.DecodeTimeSpanUnitAliases(strings.NewReader("- not a map\n"))
	if err == nil {
		t.Fatal("DecodeTimeSpanUnitAliases: expected error for malformed yaml")
	}
}

func TestTimeSpanConverter_ResolvesUnitAliases(t *testing.T) {
	t.Parallel()

	aliases, err := convert.DecodeTimeSpanUnitAliases(strings.NewReader("round: 6s\n"))
	if err != nil {
		t.Fatalf("DecodeTimeSpanUnitAliases: unexpected error: %v", err)
	}
	r := convert.NewDefaultRegistry(convert.WithTimeSpanUnitAliases(aliases))
	c, err := r.Resolve(reflect.TypeOf(time.Duration(0)))
	if err != nil {
		t.Fatalf("Resolve: unexpected error: %v", err)
	}

	v, err := c.Read(context.Background(), "3 rounds")
	if err != nil {
		t.Fatalf("Read(%q): unexpected error: %v", "3 rounds", err)
	}
	if v != 18*time.Second {
		t.Fatalf("Read(%q) = %v, want 18s", "3 rounds", v)
	}

	// Go's own duration syntax still takes priority over the alias table.
	v, err = c.Read(context.Background(), "1h")
	if err != nil {
		t.Fatalf("Read(%q): unexpected error: %v", "1h", err)
	}
	if v != time.Hour {
		t.Fatalf("Read(%q) = %v, want 1h", "1h", v)
	}
}

func TestTimeSpanConverter_WithoutAliasesRejectsUnitWords(t *testing.T) {
	t.Parallel()

	r := convert.NewDefaultRegistry()
	c, err := r.Resolve(reflect.TypeOf(time.Duration(0)))
	if err != nil {
		t.Fatalf("Resolve: unexpected error: %v", err)
	}
	if _, err := c.Read(context.Background(), "3 rounds"); err == nil {
		t.Fatal("Read: expected error with no alias table configured")
	}
}
