package crc32x

import "testing"

func TestChecksumKnownVectors(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want uint32
	}{
		{"empty", nil, 0x00000000},
		{"digits", []byte("123456789"), 0xCBF43926},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Checksum(c.in); got != c.want {
				t.Fatalf("Checksum(%q) = %#08x, want %#08x", c.in, got, c.want)
			}
		})
	}
}

func TestWriterMatchesChecksum(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	want := Checksum(data)

	w := NewWriter()
	for i := 0; i < len(data); i += 7 {
		end := min(i+7, len(data))
		_, _ = w.Write(data[i:end])
	}
	if got := w.Sum(); got != want {
		t.Fatalf("Writer.Sum() = %#08x, want %#08x", got, want)
	}
}

func TestChecksumOneByteFlipChangesResult(t *testing.T) {
	a := []byte{0x01, 0x02, 0x03, 0x04}
	b := []byte{0x01, 0x02, 0x03, 0x05}
	if Checksum(a) == Checksum(b) {
		t.Fatalf("expected different checksums for differing payloads")
	}
}
