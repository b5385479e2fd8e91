package control

import "testing"

func TestStatusRoundTrip(t *testing.T) {
	orig := &Message{
		Type: TypeStatusResponse,
		Status: &Status{
			Version:     "0.9.0",
			Group:       "226.38.254.7",
			Port:        10000,
			AutoSend:    true,
			AutoReceive: false,
			Outgoing:    3,
			Incoming:    7,
		},
	}

	raw, err := orig.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Type != orig.Type {
		t.Errorf("Type = %q, want %q", got.Type, orig.Type)
	}
	if got.Status == nil {
		t.Fatal("Status missing after round trip")
	}
	if *got.Status != *orig.Status {
		t.Errorf("Status = %+v, want %+v", *got.Status, *orig.Status)
	}
}

func TestDecodeRejectsInvalidJSON(t *testing.T) {
	if _, err := Decode([]byte("{broken")); err == nil {
		t.Fatal("Decode accepted invalid JSON")
	}
}

func TestParseToggle(t *testing.T) {
	for _, ok := range []string{"autosend", "autoreceive"} {
		if _, err := ParseToggle(ok); err != nil {
			t.Errorf("ParseToggle(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"", "auto", "AUTOSEND"} {
		if _, err := ParseToggle(bad); err == nil {
			t.Errorf("ParseToggle(%q) succeeded, want error", bad)
		}
	}
}
