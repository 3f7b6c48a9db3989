package clientpackets

import "testing"

func TestPlayerName_Parse(t *testing.T) {
	pkt, err := ParsePlayerName([]byte{0x02, 0x00, 'F', 'o', 'o', 'B', 'a', 'r', 0x00})
	if err != nil {
		t.Fatalf("ParsePlayerName() error: %v", err)
	}
	if pkt.Ordinal != 2 {
		t.Errorf("Ordinal = %d, want 2", pkt.Ordinal)
	}
	if pkt.Name != "FooBar" {
		t.Errorf("Name = %q, want %q", pkt.Name, "FooBar")
	}
}

func TestPlayerName_Parse_MissingTerminator(t *testing.T) {
	pkt, err := ParsePlayerName([]byte{0x05, 0x00, 'A', 'b'})
	if err != nil {
		t.Fatalf("ParsePlayerName() error: %v", err)
	}
	if pkt.Name != "Ab" {
		t.Errorf("Name = %q, want %q", pkt.Name, "Ab")
	}
}

func TestPlayerName_Parse_Empty(t *testing.T) {
	pkt, err := ParsePlayerName([]byte{0x03, 0x00, 0x00})
	if err != nil {
		t.Fatalf("ParsePlayerName() error: %v", err)
	}
	if pkt.Name != "" {
		t.Errorf("Name = %q, want empty", pkt.Name)
	}
}

func TestPlayerName_Parse_TooShort(t *testing.T) {
	if _, err := ParsePlayerName([]byte{0x01}); err == nil {
		t.Fatal("ParsePlayerName() expected error on 1-byte data")
	}
}

func TestPlayerChat_Parse(t *testing.T) {
	pkt, err := ParsePlayerChat([]byte{'g', 'l', ' ', 'h', 'f', 0x00})
	if err != nil {
		t.Fatalf("ParsePlayerChat() error: %v", err)
	}
	if pkt.Text != "gl hf" {
		t.Errorf("Text = %q, want %q", pkt.Text, "gl hf")
	}
}

func TestPlayerChat_Parse_Empty(t *testing.T) {
	pkt, err := ParsePlayerChat(nil)
	if err != nil {
		t.Fatalf("ParsePlayerChat() error: %v", err)
	}
	if pkt.Text != "" {
		t.Errorf("Text = %q, want empty", pkt.Text)
	}
}
