package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agnivade/voicerouter"
	"github.com/agnivade/voicerouter/internal/logging"
)

type Client struct {
	conn                *websocket.Conn
	audioReader         io.Reader
	frameSize           int
	wg                  sync.WaitGroup
	log                 zerolog.Logger
	out                 io.Writer
	file                io.Writer
	msgBuffer           *MessageBuffer
	similarityThreshold float64
	showInterim         bool
}

func main() {
	var (
		serverURL  = flag.String("url", "ws://localhost:8081/ws", "WebSocket server URL")
		provider   = flag.String("provider", "", "Provider to stream to (router default when empty)")
		language   = flag.String("language", "", "Language code")
		interim    = flag.Bool("interim", false, "Print interim transcripts")
		outputPath = flag.String("output", "", "Output file path for transcriptions (optional)")
		logLevel   = flag.String("log-level", "info", "Log level")
	)
	flag.Parse()

	logging.Init(logging.Config{Level: *logLevel, Format: "console"})
	logger := logging.WithComponent("client")

	wsURL, err := streamURL(*serverURL, *provider, *language, *interim)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid server URL")
		return
	}

	mic, err := NewMicrophoneReader(sampleRate, framesPerBuffer)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open microphone")
		return
	}
	defer mic.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		logger.Error().Err(err).Str("url", wsURL).Msg("WebSocket dial failed")
		return
	}
	defer conn.Close()

	client := &Client{
		conn:                conn,
		audioReader:         mic,
		frameSize:           framesPerBuffer * 2,
		log:                 logger,
		out:                 os.Stdout,
		msgBuffer:           NewMessageBuffer(10),
		similarityThreshold: 0.8,
		showInterim:         *interim,
	}

	if *outputPath != "" {
		outputFile, err := os.Create(*outputPath)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create output file")
			return
		}
		defer outputFile.Close()
		client.file = outputFile
	}

	fmt.Println("Recording... Press Ctrl+C to stop.")
	client.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	client.Close()
	fmt.Println("\nDone.")
}

// streamURL adds the session parameters for 16 kHz mono linear16 audio.
func streamURL(base, provider, language string, interim bool) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(sampleRate))
	q.Set("channels", "1")
	q.Set("interim", strconv.FormatBool(interim))
	if provider != "" {
		q.Set("provider", provider)
	}
	if language != "" {
		q.Set("language", language)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) Start() {
	c.wg.Add(2)
	go c.reader()
	go c.writer()
}

func (c *Client) reader() {
	defer c.wg.Done()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}

		var resp voicerouter.WebSocketResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			c.log.Warn().Err(err).Msg("Failed to unmarshal response")
			continue
		}
		c.handle(resp)
	}
}

func (c *Client) handle(resp voicerouter.WebSocketResponse) {
	switch resp.Type {
	case voicerouter.MessageSession:
		c.log.Info().Str("session_id", resp.SessionID).Str("provider", string(resp.Provider)).Msg("Session started")
	case "transcript":
		if !resp.IsFinal {
			if c.showInterim && resp.Text != "" {
				fmt.Fprintf(c.out, "  ... %s\n", resp.Text)
			}
			return
		}
		if resp.Text == "" || c.msgBuffer.IsSimilar(resp.Text, c.similarityThreshold) {
			return
		}
		c.msgBuffer.Add(resp.Text)

		line := fmt.Sprintf("[%s] %s\n", time.Now().Format("15:04:05"), resp.Text)
		fmt.Fprint(c.out, line)
		if c.file != nil {
			if _, err := io.WriteString(c.file, line); err != nil {
				c.log.Warn().Err(err).Msg("Failed to write to output file")
			}
		}
	case "error":
		if resp.Error != nil {
			c.log.Warn().Str("code", resp.Error.Code).Msg(resp.Error.Message)
		}
	case "close":
		c.log.Info().Int("code", resp.Code).Bool("forced", resp.Forced).Msg("Session closed")
	}
}

func (c *Client) writer() {
	defer c.wg.Done()

	buf := make([]byte, c.frameSize)
	for {
		n, err := c.audioReader.Read(buf)
		if n > 0 {
			if werr := c.conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				if !errors.Is(werr, net.ErrClosed) {
					c.log.Warn().Err(werr).Msg("WebSocket write error")
				}
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.log.Warn().Err(err).Msg("Audio read error")
			}
			// Ask the gateway to finalize; the reader exits on the close frame.
			_ = c.conn.WriteJSON(voicerouter.WebSocketRequest{Type: voicerouter.MessageClose})
			return
		}
	}
}

func (c *Client) Close() {
	c.log.Info().Msg("Closing client...")
	if c.conn != nil {
		c.conn.Close()
	}
	c.wg.Wait()
}
