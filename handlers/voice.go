package handlers

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"cakebox/services/chat"
	"cakebox/services/speech"
	"cakebox/utils"

	"github.com/gin-gonic/gin"
)

const (
	// MaxAudioDurationSeconds caps a voice message at one minute.
	MaxAudioDurationSeconds = 60
	// MaxAudioSize caps the uploaded file at 5MB.
	MaxAudioSize = 5 * 1024 * 1024

	allowedAudioExtension = ".wav"
)

// VoiceHandler accepts a short WAV voice message, transcribes it and routes
// the transcript through the chat service like any typed message.
type VoiceHandler struct {
	Service     chat.ChatService
	Transcriber speech.Transcriber
	chat        *ChatHandler
}

func NewVoiceHandler(service chat.ChatService, transcriber speech.Transcriber) *VoiceHandler {
	return &VoiceHandler{
		Service:     service,
		Transcriber: transcriber,
		chat:        &ChatHandler{Service: service},
	}
}

type waveHeader struct {
	RiffTag       [4]byte
	FileSize      uint32
	WaveTag       [4]byte
	FmtTag        [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataTag       [4]byte
	DataSize      uint32
}

func parseWaveHeader(data []byte) (*waveHeader, error) {
	if len(data) < 44 {
		return nil, errors.New("invalid WAV header length")
	}
	var header waveHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	if string(header.RiffTag[:]) != "RIFF" || string(header.WaveTag[:]) != "WAVE" {
		return nil, errors.New("not a RIFF/WAVE file")
	}
	return &header, nil
}

func validateWave(header *waveHeader) error {
	if header.AudioFormat != 1 {
		return errors.New("only uncompressed PCM audio is supported")
	}
	if header.NumChannels != 1 {
		return errors.New("only mono audio is supported")
	}
	if header.ByteRate == 0 {
		return errors.New("invalid byte rate")
	}
	duration := header.DataSize / header.ByteRate
	if duration > MaxAudioDurationSeconds {
		return fmt.Errorf("audio too long: %d seconds (max %d)", duration, MaxAudioDurationSeconds)
	}
	return nil
}

// VoiceMessageHandler handles POST of a voice message.
func (h *VoiceHandler) VoiceMessageHandler(c *gin.Context) {
	language := c.DefaultPostForm("language", "en-US")

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Audio file is required", err.Error())
		return
	}
	defer file.Close()

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != allowedAudioExtension {
		utils.JSONError(c, http.StatusBadRequest, "Invalid file type",
			fmt.Sprintf("expected %s, got %s", allowedAudioExtension, ext))
		return
	}
	if header.Size > MaxAudioSize {
		utils.JSONError(c, http.StatusBadRequest, "File is too large", "Please keep voice messages under 5MB.")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxAudioSize+1))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to read audio file", err.Error())
		return
	}
	if len(data) > MaxAudioSize {
		utils.JSONError(c, http.StatusBadRequest, "File is too large", "Please keep voice messages under 5MB.")
		return
	}

	wav, err := parseWaveHeader(data)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid audio file", err.Error())
		return
	}
	if err := validateWave(wav); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Unsupported audio", err.Error())
		return
	}

	transcript, err := h.Transcriber.Transcribe(c.Request.Context(), data, int32(wav.SampleRate), language)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Transcription failed", err.Error())
		return
	}
	if transcript == "" {
		utils.JSONError(c, http.StatusUnprocessableEntity, "Nothing recognized", "We couldn't make out any speech in that recording. Please try again.")
		return
	}

	update, err := h.Service.SubmitText(c.Request.Context(), sessionID(c), transcript)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{
			"transcript": transcript,
			"update":     update,
		})
		return
	}
	h.chat.respond(c, update, err)
}
