package engine

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// writeWAV writes a 16-bit mono PCM file with the given number of samples.
func writeWAV(t *testing.T, sampleRate, samples int) string {
	t.Helper()

	dataSize := samples * 2
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))

	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecode_WAV(t *testing.T) {
	path := writeWAV(t, 8000, 8000)

	streamer, format, f, err := decode(path)
	assert.NoError(t, err)
	defer streamer.Close()
	defer f.Close()

	assert.Equal(t, 8000, int(format.SampleRate))
	assert.Equal(t, 8000, streamer.Len())
	assert.Equal(t, time.Second, format.SampleRate.D(streamer.Len()))
}

func TestDecode_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, _, err := decode(path)
	assert.ErrorContains(t, err, "unsupported format")
}

func TestDecode_MissingFile(t *testing.T) {
	_, _, _, err := decode(filepath.Join(t.TempDir(), "absent.mp3"))
	assert.Error(t, err)
}

func TestDecode_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.wav")
	if err := os.WriteFile(path, []byte("RIFFxxxx"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, _, err := decode(path)
	assert.Error(t, err)
}

func TestBeep_BeforeLoad(t *testing.T) {
	e := NewBeep()
	defer e.Close()

	assert.Equal(t, Stopped, e.State())
	assert.Equal(t, time.Duration(0), e.Position())
	assert.Equal(t, time.Duration(0), e.Duration())

	// With nothing loaded a seek is a no-op and the barrier stays at zero.
	assert.Equal(t, uint64(0), e.SeekTo(30*time.Second))

	// Speed is stored for the next load even without a resampler.
	e.SetSpeed(1.5)
	e.SetSpeed(-1)
	e.mu.Lock()
	assert.Equal(t, 1.5, e.speed)
	e.mu.Unlock()
}

func TestBeep_CloseIsIdempotent(t *testing.T) {
	e := NewBeep()
	assert.NoError(t, e.Close())
	assert.NoError(t, e.Close())
}
