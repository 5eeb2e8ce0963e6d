package catalog

import (
	"strconv"
	"strings"
)

// Time slots shared by all sessions of a conference day.
const (
	TimeSlotAfternoon = "2:40 PM - 4:30 PM"
	TimeSlotMorning   = "11:30 AM - 1:00 PM"
)

// Track names accepted for papers and sessions.
const (
	TrackAI         = "Artificial Intelligence, Intelligent Systems and Automation"
	TrackFiveG      = "5G, IOT and Futuristic Technologies"
	TrackARVR       = "Augmented Reality, Virtual Reality and Robotics, Multimedia Services and Technologies, Blockchain and Cyberphysical Systems"
	TrackGreen      = "Green Computing and Sustainability, Renewable Energy and Global Sustainability, Smart City, Smart Systems and VLSI based Technologies"
	TrackNetworking = "Ubiquitous Computing, Networking and Cyber Security"
	TrackBigData    = "Big Data, Data Science and Engineering, Natural Language Processing"
)

var sessionTracks = map[string]string{
	"Session 1":  TrackAI,
	"Session 2":  TrackAI,
	"Session 3":  TrackAI,
	"Session 4":  TrackFiveG,
	"Session 5":  TrackARVR,
	"Session 6":  TrackAI,
	"Session 7":  TrackAI,
	"Session 8":  TrackGreen,
	"Session 9":  TrackNetworking,
	"Session 10": TrackBigData,
}

var sessionVenues = map[string]string{
	"Session 1":  "AITR Building Block 3 CSIT Dept. 3rd Floor Lab No. 337",
	"Session 2":  "AITR Building Block 3 CSIT Dept. 3rd Floor Lab No. 343",
	"Session 3":  "AITR Building Block 3 CSIT Dept. 3rd Floor Lab No. 285",
	"Session 4":  "AITR Building Block 3 CSIT Dept. 3rd Floor Lab No. 339",
	"Session 5":  "AITR Building Block 3 CSIT Dept. 3rd Floor Lab No. 341",
	"Session 6":  "AITR Building Block 3 CSIT Dept. 3rd Floor Lab No. 337",
	"Session 7":  "AITR Building Block 3 CSIT Dept. 3rd Floor Lab No. 343",
	"Session 8":  "AITR Building Block 3 CSIT Dept. 3rd Floor Lab No. 285",
	"Session 9":  "AITR Building Block 3 CSIT Dept. 3rd Floor Lab No. 339",
	"Session 10": "AITR Building Block 3 CSIT Dept. 3rd Floor Lab No. 341",
}

var sessionOrder = []string{
	"Session 1", "Session 2", "Session 3", "Session 4", "Session 5",
	"Session 6", "Session 7", "Session 8", "Session 9", "Session 10",
}

// Session is one immutable catalog entry.
type Session struct {
	ID       string `json:"id"`
	Ordinal  int    `json:"ordinal"`
	Track    string `json:"track"`
	TimeSlot string `json:"time_slot"`
	Venue    string `json:"venue"`
	Date     string `json:"date"`
}

// Catalog exposes the fixed session reference data. It is built once at
// startup and shared read-only by every component.
type Catalog struct {
	sessions map[string]Session
	order    []string
	dayOne   string
	dayTwo   string
}

// New builds the catalog for the two configured conference days. Sessions
// with ordinal 1-5 run on day one, 6-10 on day two.
func New(dayOne, dayTwo string) *Catalog {
	c := &Catalog{
		sessions: make(map[string]Session, len(sessionOrder)),
		order:    sessionOrder,
		dayOne:   dayOne,
		dayTwo:   dayTwo,
	}
	for _, id := range sessionOrder {
		ordinal := ordinalOf(id)
		date := dayOne
		slot := TimeSlotAfternoon
		if ordinal > 5 {
			date = dayTwo
			slot = TimeSlotMorning
		}
		c.sessions[id] = Session{
			ID:       id,
			Ordinal:  ordinal,
			Track:    sessionTracks[id],
			TimeSlot: slot,
			Venue:    sessionVenues[id],
			Date:     date,
		}
	}
	return c
}

// Lookup returns the full session entry.
func (c *Catalog) Lookup(session string) (Session, bool) {
	s, ok := c.sessions[strings.TrimSpace(session)]
	return s, ok
}

// TrackOf returns the track assigned to the session.
func (c *Catalog) TrackOf(session string) (string, bool) {
	s, ok := c.Lookup(session)
	return s.Track, ok
}

// TimeSlotOf returns the time slot the session runs in.
func (c *Catalog) TimeSlotOf(session string) (string, bool) {
	s, ok := c.Lookup(session)
	return s.TimeSlot, ok
}

// VenueOf returns the room label for the session.
func (c *Catalog) VenueOf(session string) (string, bool) {
	s, ok := c.Lookup(session)
	return s.Venue, ok
}

// DateOf returns the only conference date the session may run on.
func (c *Catalog) DateOf(session string) (string, bool) {
	s, ok := c.Lookup(session)
	return s.Date, ok
}

// Sessions returns all session entries in catalog order.
func (c *Catalog) Sessions() []Session {
	out := make([]Session, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.sessions[id])
	}
	return out
}

// SessionsForDate returns the session identifiers eligible for the date.
func (c *Catalog) SessionsForDate(date string) []string {
	var out []string
	for _, id := range c.order {
		if c.sessions[id].Date == date {
			out = append(out, id)
		}
	}
	return out
}

// Dates returns the two conference days in order.
func (c *Catalog) Dates() []string {
	return []string{c.dayOne, c.dayTwo}
}

// Tracks returns the distinct track names, ordered by the first session
// that hosts each track.
func (c *Catalog) Tracks() []string {
	seen := make(map[string]bool, len(c.order))
	out := make([]string, 0, len(c.order))
	for _, id := range c.order {
		track := c.sessions[id].Track
		if !seen[track] {
			seen[track] = true
			out = append(out, track)
		}
	}
	return out
}

// IsTrack reports whether the value normalizes to a known track name.
func (c *Catalog) IsTrack(track string) bool {
	normalized := NormalizeTrack(track)
	for _, t := range c.Tracks() {
		if NormalizeTrack(t) == normalized {
			return true
		}
	}
	return false
}

// NormalizeTrack lower-cases, trims and collapses inner whitespace so track
// names compare equal regardless of formatting.
func NormalizeTrack(track string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(track))), " ")
}

func ordinalOf(session string) int {
	fields := strings.Fields(session)
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0
	}
	return n
}
