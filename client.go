package main

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var errNotConnected = errors.New("relay not connected")

// CrewConfig is the device's saved crew identity. The relay assigns the
// ids on first join; after that the device rejoins with the same code.
type CrewConfig struct {
	DeviceID    string `json:"device_id"`
	CrewID      string `json:"crew_id"`
	CrewCode    string `json:"crew_code"`
	DisplayName string `json:"display_name"`
}

func loadCrewConfig(path string) CrewConfig {
	cc := CrewConfig{DisplayName: "LEELOO"}
	data, err := os.ReadFile(path)
	if err != nil {
		return cc
	}
	if err := json.Unmarshal(data, &cc); err != nil {
		log.Printf("client: crew config unreadable: %v", err)
	}
	if cc.DisplayName == "" {
		cc.DisplayName = "LEELOO"
	}
	return cc
}

func (cc CrewConfig) save(path string) {
	if dir := filepath.Dir(path); dir != "." {
		os.MkdirAll(dir, 0o755)
	}
	data, err := json.Marshal(cc)
	if err == nil {
		err = os.WriteFile(path, data, 0o644)
	}
	if err != nil {
		log.Printf("client: saving crew config: %v", err)
	}
}

// SongPush is a track pushed to the crew.
type SongPush struct {
	Artist      string `json:"artist"`
	Track       string `json:"track"`
	Album       string `json:"album"`
	SpotifyURI  string `json:"spotify_uri"`
	AlbumArtURL string `json:"album_art_url"`
}

type messagePayload struct {
	Text string `json:"text"`
}

type reactionPayload struct {
	Reaction string `json:"reaction"`
	ToDevice string `json:"to_device,omitempty"`
}

// relayEnvelope covers every inbound message shape from the relay.
type relayEnvelope struct {
	Type        string          `json:"type"`
	MsgType     string          `json:"msg_type"`
	Payload     json.RawMessage `json:"payload"`
	FromName    string          `json:"from_name"`
	DeviceID    string          `json:"device_id"`
	CrewID      string          `json:"crew_id"`
	CrewCode    string          `json:"crew_code"`
	CrewMembers int             `json:"crew_members"`
	DisplayName string          `json:"display_name"`
	Message     string          `json:"message"`
}

type relayCallbacks struct {
	onMessage       func(from, text string)
	onReaction      func(from, kind string)
	onSongPush      func(from string, song SongPush)
	onMemberJoined  func(name string)
	onMemberOffline func(name string)
}

// relayClient keeps a websocket to the crew relay, rejoining the saved
// crew on every (re)connect and dispatching crew traffic to the UI.
type relayClient struct {
	url        string
	configPath string
	callbacks  relayCallbacks

	mu     sync.Mutex
	conn   *websocket.Conn
	config CrewConfig

	writeMu sync.Mutex
	quit    chan struct{}
}

func newRelayClient(url, configPath string, cb relayCallbacks) *relayClient {
	return &relayClient{
		url:        url,
		configPath: configPath,
		callbacks:  cb,
		config:     loadCrewConfig(configPath),
		quit:       make(chan struct{}),
	}
}

func (c *relayClient) Start() {
	go c.run()
}

func (c *relayClient) Stop() {
	close(c.quit)
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.mu.Unlock()
}

// Connected reports whether a relay session is up.
func (c *relayClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// CrewCode returns the current crew code, empty when no crew is set up.
func (c *relayClient) CrewCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config.CrewCode
}

// run dials the relay forever, backing off on failure. Each session
// rejoins the saved crew, or creates one on a fresh device.
func (c *relayClient) run() {
	backoff := time.Second
	for {
		select {
		case <-c.quit:
			return
		default:
		}

		err := c.session()
		if err != nil {
			log.Printf("client: relay session ended: %v", err)
		}

		select {
		case <-c.quit:
			return
		case <-time.After(backoff):
		}
		if backoff < 60*time.Second {
			backoff *= 2
		}
	}
}

func (c *relayClient) session() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	cc := c.config
	c.mu.Unlock()

	defer func() {
		conn.Close()
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
	}()

	if cc.CrewCode != "" {
		err = c.send(map[string]any{
			"type":         "join_crew",
			"crew_code":    cc.CrewCode,
			"device_id":    orNil(cc.DeviceID),
			"display_name": cc.DisplayName,
		})
	} else {
		err = c.send(map[string]any{
			"type":         "create_crew",
			"device_id":    orNil(cc.DeviceID),
			"display_name": cc.DisplayName,
		})
	}
	if err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go c.keepalive(conn, done)

	for {
		var env relayEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			return err
		}
		c.dispatch(env)
	}
}

func orNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// keepalive pings the relay every 30 s so idle crews stay connected
// through NAT timeouts.
func (c *relayClient) keepalive(conn *websocket.Conn, done <-chan struct{}) {
	tick := time.NewTicker(30 * time.Second)
	defer tick.Stop()
	for {
		select {
		case <-done:
			return
		case <-c.quit:
			return
		case <-tick.C:
			if err := c.send(map[string]any{"type": "ping"}); err != nil {
				return
			}
		}
	}
}

func (c *relayClient) dispatch(env relayEnvelope) {
	switch env.Type {
	case "crew_created", "crew_joined":
		c.mu.Lock()
		c.config.DeviceID = env.DeviceID
		c.config.CrewID = env.CrewID
		c.config.CrewCode = env.CrewCode
		cc := c.config
		c.mu.Unlock()
		cc.save(c.configPath)
		log.Printf("client: in crew %s (%d members)", env.CrewCode, env.CrewMembers)

	case "message":
		from := env.FromName
		if from == "" {
			from = "Someone"
		}
		switch env.MsgType {
		case "text":
			var p messagePayload
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				log.Printf("client: bad text payload: %v", err)
				return
			}
			if c.callbacks.onMessage != nil {
				c.callbacks.onMessage(from, p.Text)
			}
		case "reaction":
			p := reactionPayload{Reaction: "love"}
			if len(env.Payload) > 0 {
				json.Unmarshal(env.Payload, &p)
			}
			if c.callbacks.onReaction != nil {
				c.callbacks.onReaction(from, p.Reaction)
			}
		case "song_push":
			var p SongPush
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				log.Printf("client: bad song payload: %v", err)
				return
			}
			if c.callbacks.onSongPush != nil {
				c.callbacks.onSongPush(from, p)
			}
		}

	case "member_joined":
		if c.callbacks.onMemberJoined != nil {
			c.callbacks.onMemberJoined(env.DisplayName)
		}

	case "member_offline":
		if c.callbacks.onMemberOffline != nil {
			c.callbacks.onMemberOffline(env.DisplayName)
		}

	case "error":
		log.Printf("client: relay error: %s", env.Message)

	case "pong":
	}
}

func (c *relayClient) send(v any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errNotConnected
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(v)
}

// SendMessage sends a text message to the crew.
func (c *relayClient) SendMessage(text string) error {
	return c.send(map[string]any{
		"type":     "message",
		"msg_type": "text",
		"payload":  messagePayload{Text: text},
	})
}

// SendReaction sends a reaction to the crew.
func (c *relayClient) SendReaction(kind string) error {
	return c.send(map[string]any{
		"type":     "message",
		"msg_type": "reaction",
		"payload":  reactionPayload{Reaction: kind},
	})
}

// SendSong pushes a track to the crew.
func (c *relayClient) SendSong(song SongPush) error {
	return c.send(map[string]any{
		"type":     "message",
		"msg_type": "song_push",
		"payload":  song,
	})
}
