package validation

import "testing"

func TestLookup(t *testing.T) {
	model := map[string]any{
		"name": "Any Name",
		"nothing": nil,
		"data": map[string]any{"type": "CREDIT"},
		"orderItems": []any{
			map[string]any{"productId": "p1"},
			map[string]any{"productId": "p2"},
		},
	}

	cases := []struct {
		path    string
		want    any
		present bool
	}{
		{"name", "Any Name", true},
		{"nothing", nil, true},
		{"missing", nil, false},
		{"data.type", "CREDIT", true},
		{"data.missing", nil, false},
		{"orderItems.1.productId", "p2", true},
		{"orderItems.2.productId", nil, false},
		{"orderItems.0.missing", nil, false},
		{"name.0", nil, false},
	}

	for _, tc := range cases {
		got, present := lookup(model, parsePath(tc.path))
		if present != tc.present || got != tc.want {
			t.Fatalf("%s: got %v (present=%v), want %v (present=%v)", tc.path, got, present, tc.want, tc.present)
		}
	}
}

func TestPathRoundTrip(t *testing.T) {
	for _, field := range []string{"name", "orderItems.0.productId", "data.type"} {
		if got := parsePath(field).String(); got != field {
			t.Fatalf("round trip of %q gave %q", field, got)
		}
	}
	if got := parsePath("orderItems").at(3).child("quantity").String(); got != "orderItems.3.quantity" {
		t.Fatalf("unexpected path %q", got)
	}
	if got := parsePath("orderItems.0.productId").parent().String(); got != "orderItems.0" {
		t.Fatalf("unexpected parent %q", got)
	}
}
