package hexutil

import "testing"

func TestRemove0xAdd0x(t *testing.T) {
	cases := []struct {
		in, stripped string
	}{
		{"0xdeadbeef", "deadbeef"},
		{"0XDEADBEEF", "DEADBEEF"},
		{"deadbeef", "deadbeef"},
	}
	for _, c := range cases {
		if got := Remove0x(c.in); got != c.stripped {
			t.Errorf("Remove0x(%q) = %q, want %q", c.in, got, c.stripped)
		}
	}
	if got := Add0x("deadbeef"); got != "0xdeadbeef" {
		t.Errorf("Add0x = %q, want 0xdeadbeef", got)
	}
	if got := Add0x("0xdeadbeef"); got != "0xdeadbeef" {
		t.Errorf("Add0x idempotent = %q, want 0xdeadbeef", got)
	}
}

func TestAssertIsValidHexAddress(t *testing.T) {
	valid := "356281bf5382846adf421cf4d4a9421f5f158592" // 40 chars
	if err := AssertIsValidHexAddress(valid); err != nil {
		t.Fatalf("expected valid address, got %v", err)
	}
	if err := AssertIsValidHexAddress("0x" + valid); err != nil {
		t.Fatalf("expected valid 0x-prefixed address, got %v", err)
	}

	tooShort := "abcd"
	err := AssertIsValidHexAddress(tooShort)
	if err == nil {
		t.Fatal("expected error for too-short address")
	}
	hexErr, ok := err.(*Error)
	if !ok || hexErr.Kind != InvalidHexLength {
		t.Fatalf("expected InvalidHexLength, got %v", err)
	}

	notHex := "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"
	err = AssertIsValidHexAddress(notHex)
	if err == nil {
		t.Fatal("expected error for non-hex address")
	}
	if hexErr, ok := err.(*Error); !ok || hexErr.Kind != InvalidHexAddress {
		t.Fatalf("expected InvalidHexAddress, got %v", err)
	}
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	b, err := Decode("0x0102030a")
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if got := Encode(b); got != "0102030a" {
		t.Errorf("Encode round trip = %q, want 0102030a", got)
	}
}

func TestDecodeInvalid(t *testing.T) {
	if _, err := Decode("0xzz"); err == nil {
		t.Fatal("expected error decoding invalid hex")
	}
}
