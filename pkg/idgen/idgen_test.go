package idgen

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestOrderNumberLayout(t *testing.T) {
	gen := Generator{Now: func() time.Time { return time.UnixMilli(1736500123456) }}

	number, err := gen.OrderNumber()
	if err != nil {
		t.Fatalf("order number: %v", err)
	}
	if !strings.HasPrefix(number, "ORD123456") {
		t.Fatalf("unexpected order number %q", number)
	}
	if !regexp.MustCompile(`^ORD\d{9}$`).MatchString(number) {
		t.Fatalf("order number %q does not match layout", number)
	}
}

func TestOrderNumberPadsShortClock(t *testing.T) {
	gen := Generator{Now: func() time.Time { return time.UnixMilli(4321) }}

	number, err := gen.OrderNumber()
	if err != nil {
		t.Fatalf("order number: %v", err)
	}
	if !strings.HasPrefix(number, "ORD004321") {
		t.Fatalf("expected zero padded millis, got %q", number)
	}
	if !regexp.MustCompile(`^ORD\d{9}$`).MatchString(number) {
		t.Fatalf("order number %q does not match layout", number)
	}
}

func TestInvoiceNumberLayout(t *testing.T) {
	number, err := Generator{}.InvoiceNumber()
	if err != nil {
		t.Fatalf("invoice number: %v", err)
	}
	if !regexp.MustCompile(`^INV\d{9}$`).MatchString(number) {
		t.Fatalf("invoice number %q does not match layout", number)
	}
}

func TestUniqueID(t *testing.T) {
	seen := map[string]struct{}{}
	pattern := regexp.MustCompile(`^[A-Za-z0-9]{12}$`)
	for i := 0; i < 50; i++ {
		id, err := UniqueID()
		if err != nil {
			t.Fatalf("unique id: %v", err)
		}
		if !pattern.MatchString(id) {
			t.Fatalf("unexpected unique id %q", id)
		}
		seen[id] = struct{}{}
	}
	if len(seen) < 50 {
		t.Fatalf("expected distinct ids, got %d unique of 50", len(seen))
	}
}
