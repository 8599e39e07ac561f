package handlers

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildWave(t *testing.T, format, channels uint16, sampleRate, byteRate, dataSize uint32) []byte {
	t.Helper()
	header := waveHeader{
		RiffTag:       [4]byte{'R', 'I', 'F', 'F'},
		FileSize:      36 + dataSize,
		WaveTag:       [4]byte{'W', 'A', 'V', 'E'},
		FmtTag:        [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   format,
		NumChannels:   channels,
		SampleRate:    sampleRate,
		ByteRate:      byteRate,
		BlockAlign:    2,
		BitsPerSample: 16,
		DataTag:       [4]byte{'d', 'a', 't', 'a'},
		DataSize:      dataSize,
	}
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, &header))
	return buf.Bytes()
}

func TestParseWaveHeader(t *testing.T) {
	data := buildWave(t, 1, 1, 16000, 32000, 64000)

	header, err := parseWaveHeader(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(16000), header.SampleRate)
	assert.Equal(t, uint16(1), header.NumChannels)
}

func TestParseWaveHeaderRejectsShortData(t *testing.T) {
	_, err := parseWaveHeader([]byte("RIFF"))
	assert.Error(t, err)
}

func TestParseWaveHeaderRejectsWrongMagic(t *testing.T) {
	data := buildWave(t, 1, 1, 16000, 32000, 64000)
	copy(data[8:12], "OGGS")

	_, err := parseWaveHeader(data)
	assert.Error(t, err)
}

func TestValidateWave(t *testing.T) {
	tests := []struct {
		name    string
		format  uint16
		chans   uint16
		byteR   uint32
		dataSz  uint32
		wantErr bool
	}{
		{"valid 2 second clip", 1, 1, 32000, 64000, false},
		{"exactly at the duration cap", 1, 1, 32000, 32000 * MaxAudioDurationSeconds, false},
		{"one second over the cap", 1, 1, 32000, 32000 * (MaxAudioDurationSeconds + 1), true},
		{"compressed audio", 85, 1, 32000, 64000, true},
		{"stereo", 1, 2, 64000, 64000, true},
		{"zero byte rate", 1, 1, 0, 64000, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			header := &waveHeader{
				AudioFormat: tc.format,
				NumChannels: tc.chans,
				ByteRate:    tc.byteR,
				DataSize:    tc.dataSz,
			}
			err := validateWave(header)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
