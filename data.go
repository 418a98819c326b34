package main

import (
	"sync"
	"time"
)

// WeatherData carries what the weather panel shows. Sliders scale TempF
// 0-100F and Rain24h 0-6in onto 12 boxes; UV drives the color-banded
// slider directly.
type WeatherData struct {
	TempF    float64 `json:"temp_f"`
	UVIndex  float64 `json:"uv_raw"`
	Rain24h  float64 `json:"rain_24h_inches"`
	Summary  string  `json:"summary,omitempty"`
	Humidity int     `json:"humidity,omitempty"`
	WindMPH  float64 `json:"wind_mph,omitempty"`
	WindDir  string  `json:"wind_dir,omitempty"`
	HighF    float64 `json:"high_f,omitempty"`
	LowF     float64 `json:"low_f,omitempty"`
}

// AlbumData is the currently pushed track.
type AlbumData struct {
	Artist     string `json:"artist"`
	Track      string `json:"track"`
	Album      string `json:"album,omitempty"`
	BPM        int    `json:"bpm,omitempty"`
	Listeners  string `json:"listeners,omitempty"`
	PushedBy   string `json:"pushed_by,omitempty"`
	PushedAgo  string `json:"pushed_ago,omitempty"`
	SpotifyURI string `json:"spotify_uri,omitempty"`
	ArtPath    string `json:"art_path,omitempty"`
}

// Contact is a crew member shown on the messages row.
type Contact struct {
	Name   string `json:"name"`
	Unread int    `json:"unread"`
}

// ChatMessage is one line of the crew conversation.
type ChatMessage struct {
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	At     time.Time `json:"at"`
}

// AgendaItem is one calendar occurrence for the expanded time panel.
type AgendaItem struct {
	Start time.Time `json:"start"`
	Title string    `json:"title"`
}

// DisplayData is everything the renderer needs besides the clock. The
// manager snapshots it once per paint so a render never sees a half
// applied update.
type DisplayData struct {
	Weather      WeatherData   `json:"weather"`
	Contacts     []Contact     `json:"contacts"`
	Album        AlbumData     `json:"album"`
	Conversation []ChatMessage `json:"conversation"`
	Agenda       []AgendaItem  `json:"agenda"`
	NextHang     *AgendaItem   `json:"next_hang,omitempty"`
	WifiUp       bool          `json:"wifi_up"`
	WifiStrength float64       `json:"wifi_strength"`
	CrewName     string        `json:"crew_name,omitempty"`
}

var (
	dataMutex  sync.RWMutex
	gadgetData = DisplayData{
		Weather: WeatherData{
			TempF:    72,
			UVIndex:  5,
			Rain24h:  0,
			Summary:  "Partly cloudy",
			Humidity: 45,
			WindMPH:  8,
			WindDir:  "SW",
			HighF:    78,
			LowF:     62,
		},
		Contacts: []Contact{{Name: "Amy"}, {Name: "Ben", Unread: 2}},
		Conversation: []ChatMessage{
			{Sender: "Amy", Text: "Hey! Are you free for lunch today?"},
			{Sender: "Ben", Text: "Check out this song"},
		},
		Album: AlbumData{
			Artist:    "Cinnamon Chasers",
			Track:     "Doorways",
			Album:     "Speeder",
			BPM:       120,
			Listeners: "262K",
			PushedBy:  "Amy",
			PushedAgo: "2 hours ago",
		},
	}
)

// snapshotData returns a copy safe to render from. Slices are cloned;
// collectors may append to theirs right after we return.
func snapshotData() DisplayData {
	dataMutex.RLock()
	defer dataMutex.RUnlock()
	d := gadgetData
	d.Contacts = append([]Contact(nil), gadgetData.Contacts...)
	d.Conversation = append([]ChatMessage(nil), gadgetData.Conversation...)
	d.Agenda = append([]AgendaItem(nil), gadgetData.Agenda...)
	if gadgetData.NextHang != nil {
		hang := *gadgetData.NextHang
		d.NextHang = &hang
	}
	return d
}

// updateData applies a mutation under the write lock.
func updateData(mutate func(*DisplayData)) {
	dataMutex.Lock()
	defer dataMutex.Unlock()
	mutate(&gadgetData)
}

// maxConversationLines keeps the chat thread bounded.
const maxConversationLines = 50

// appendConversation records an incoming or outgoing chat line and bumps
// the sender's unread badge for inbound messages.
func appendConversation(sender, text string, inbound bool) {
	updateData(func(d *DisplayData) {
		d.Conversation = append(d.Conversation, ChatMessage{Sender: sender, Text: text, At: time.Now()})
		if len(d.Conversation) > maxConversationLines {
			d.Conversation = d.Conversation[len(d.Conversation)-maxConversationLines:]
		}
		if !inbound {
			return
		}
		for i := range d.Contacts {
			if d.Contacts[i].Name == sender {
				d.Contacts[i].Unread++
				return
			}
		}
		d.Contacts = append(d.Contacts, Contact{Name: sender, Unread: 1})
	})
}
