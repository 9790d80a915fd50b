package capture

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/go-audio/wav"
)

func TestEncodeWAVRoundTrip(t *testing.T) {
	samples := []int16{0, 100, -100, 32767, -32768}
	pcm := make([]byte, len(samples)*2)
	for i, v := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(v))
	}

	encoded, err := EncodeWAV(pcm, 16000, 1)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	dec := wav.NewDecoder(bytes.NewReader(encoded))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec.SampleRate != 16000 || dec.NumChans != 1 {
		t.Fatalf("unexpected format: rate=%d chans=%d", dec.SampleRate, dec.NumChans)
	}
	if len(buf.Data) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(buf.Data))
	}
	for i, v := range samples {
		if buf.Data[i] != int(v) {
			t.Fatalf("sample %d: expected %d, got %d", i, v, buf.Data[i])
		}
	}
}

func TestEncodeWAVRejectsUnalignedPayload(t *testing.T) {
	if _, err := EncodeWAV([]byte{0x01}, 16000, 1); err == nil {
		t.Fatal("expected error for odd-length payload")
	}
}
