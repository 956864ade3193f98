// Package voice synthesizes speech through the Puter text-to-speech
// API and plays it through whichever local audio player is installed.
//
// The synthesis endpoint answers in one of three shapes and the
// content type disambiguates them:
//
//   - a non-JSON body is the MP3 audio itself
//   - a JSON body with audio_url points at a second fetch
//   - any other JSON body is an error object
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	// DefaultBaseURL is the Puter text-to-speech endpoint.
	DefaultBaseURL = "https://api.puter.ai/v1/ai/txt2speech"
	// DefaultVoice is used when no voice is configured.
	DefaultVoice = "en-US-Standard-A"
	// DefaultSpeed is the normal speaking rate.
	DefaultSpeed = 1.0
	// DefaultFallbackPath receives the clip when no player works.
	DefaultFallbackPath = "jervis_speech.mp3"

	requestTimeout = 30 * time.Second
	userAgent      = "Jervis/1.0 (AI Assistant)"
)

// ErrPlayback reports that synthesis succeeded but local playback did
// not; the clip is saved to the fallback path so nothing is lost.
var ErrPlayback = errors.New("voice: playback unavailable")

// Client synthesizes and plays speech.
type Client struct {
	baseURL      string
	voice        string
	speed        float64
	fallbackPath string
	players      []Player
	httpClient   *http.Client
	log          zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithVoice selects the synthesis voice; see Voices for accepted names.
func WithVoice(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.voice = name
		}
	}
}

// WithSpeed sets the speaking rate; non-positive values keep the default.
func WithSpeed(speed float64) Option {
	return func(c *Client) {
		if speed > 0 {
			c.speed = speed
		}
	}
}

// WithPlayers overrides the playback probe order.
func WithPlayers(players []Player) Option {
	return func(c *Client) { c.players = players }
}

// WithFallbackPath overrides where unplayable clips are saved.
func WithFallbackPath(path string) Option {
	return func(c *Client) { c.fallbackPath = path }
}

// WithHTTPClient overrides the default 30s-timeout client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger attaches a logger; the default discards.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log.With().Str("component", "voice").Logger() }
}

// NewClient builds a Client with the stock voice, speed, and player
// probe order.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		voice:        DefaultVoice,
		speed:        DefaultSpeed,
		fallbackPath: DefaultFallbackPath,
		players:      defaultPlayers(),
		httpClient:   &http.Client{Timeout: requestTimeout},
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ttsRequest struct {
	Text   string  `json:"text"`
	Voice  string  `json:"voice"`
	Speed  float64 `json:"speed"`
	Format string  `json:"format"`
}

// Synthesize converts text to MP3 bytes.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	audio, err := c.synthesize(ctx, text)
	if err != nil {
		c.log.Error().Err(err).Msg("speech synthesis failed")
		return nil, err
	}
	return audio, nil
}

func (c *Client) synthesize(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(ttsRequest{
		Text:   text,
		Voice:  c.voice,
		Speed:  c.speed,
		Format: "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech API error [%d]", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		if len(body) == 0 {
			return nil, fmt.Errorf("speech API returned no audio")
		}
		return body, nil
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("speech API: invalid JSON response")
	}
	if audioURL := gjson.GetBytes(body, "audio_url").String(); audioURL != "" {
		return c.fetchAudio(ctx, audioURL)
	}
	msg := gjson.GetBytes(body, "error.message").String()
	if msg == "" {
		msg = "unknown speech API error"
	}
	return nil, fmt.Errorf("speech API error: %s", msg)
}

func (c *Client) fetchAudio(ctx context.Context, audioURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audio fetch error [%d]", resp.StatusCode)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	return audio, nil
}

// Speak synthesizes text and plays it through the first working
// player. Synthesis failures return the underlying error; when every
// player fails the clip is written to the fallback path and the
// returned error wraps ErrPlayback.
func (c *Client) Speak(ctx context.Context, text string) error {
	audio, err := c.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	if err := c.play(ctx, audio); err != nil {
		if werr := os.WriteFile(c.fallbackPath, audio, 0o644); werr != nil {
			c.log.Error().Err(werr).Str("path", c.fallbackPath).Msg("failed to save fallback audio")
		} else {
			c.log.Warn().Str("path", c.fallbackPath).Msg("playback unavailable, saved audio instead")
		}
		return err
	}
	return nil
}

// SaveSpeech synthesizes text and writes the MP3 to filename.
func (c *Client) SaveSpeech(ctx context.Context, text, filename string) error {
	audio, err := c.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, audio, 0o644); err != nil {
		return fmt.Errorf("failed to save audio: %w", err)
	}
	c.log.Info().Str("path", filename).Int("bytes", len(audio)).Msg("speech saved")
	return nil
}

// Voices lists the voice names the synthesis endpoint accepts.
func Voices() []string {
	return []string{
		"en-US-Standard-A",
		"en-US-Standard-B",
		"en-US-Standard-C",
		"en-US-Standard-D",
		"en-GB-Standard-A",
		"en-GB-Standard-B",
	}
}
