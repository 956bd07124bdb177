package crypto

import "testing"

func TestBcryptHasherRoundTrip(t *testing.T) {
	h := NewBcryptHasher(4)

	hash, err := h.Hash("Secret@123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "Secret@123" {
		t.Fatal("hash must not equal the plain value")
	}
	if !h.Compare(hash, "Secret@123") {
		t.Fatal("Compare rejected the original value")
	}
	if h.Compare(hash, "Secret@124") {
		t.Fatal("Compare accepted a wrong value")
	}
}

func TestBcryptHasherCostFallback(t *testing.T) {
	h := NewBcryptHasher(99)
	if _, err := h.Hash("Secret@123"); err != nil {
		t.Fatalf("Hash with clamped cost: %v", err)
	}
}
