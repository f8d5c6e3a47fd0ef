// Package relay carries lifecycle messages across the isolation boundary
// between a running game program and the page hosting it.
package relay

// Message is a lifecycle message. The set of variants is closed.
type Message interface {
	// Type returns the wire tag of the message.
	Type() string
	relayMessage()
}

// Wire tags.
const (
	TypeReady          = "ready"
	TypeError          = "error"
	TypeGameOver       = "game-over"
	TypeSoundEffect    = "sound-effect"
	TypeSubmitScore    = "submit-score"
	TypeRestartAck     = "restart-ack"
	TypeRestartRequest = "restart-request"
	TypeHighScore      = "high-score"
)

// Ready is sent by the program once its sources are loaded.
type Ready struct{}

func (Ready) Type() string  { return TypeReady }
func (Ready) relayMessage() {}

// Error reports a fetch, init or runtime failure. Message is kept verbatim.
type Error struct {
	Message string `json:"message"`
}

func (Error) Type() string  { return TypeError }
func (Error) relayMessage() {}

// GameOver is sent when a round ends.
type GameOver struct {
	Score int `json:"score"`
}

func (GameOver) Type() string  { return TypeGameOver }
func (GameOver) relayMessage() {}

// SoundEffect asks the host to play a named sound.
type SoundEffect struct {
	Name string `json:"name"`
}

func (SoundEffect) Type() string  { return TypeSoundEffect }
func (SoundEffect) relayMessage() {}

// SubmitScore asks the host to store a score.
type SubmitScore struct {
	Score int `json:"score"`
}

func (SubmitScore) Type() string  { return TypeSubmitScore }
func (SubmitScore) relayMessage() {}

// RestartAck confirms the program restarted after a RestartRequest.
type RestartAck struct{}

func (RestartAck) Type() string  { return TypeRestartAck }
func (RestartAck) relayMessage() {}

// RestartRequest asks the program to start a new round.
type RestartRequest struct{}

func (RestartRequest) Type() string  { return TypeRestartRequest }
func (RestartRequest) relayMessage() {}

// HighScore pushes the best known score for the game into the program.
type HighScore struct {
	Score int `json:"score"`
}

func (HighScore) Type() string  { return TypeHighScore }
func (HighScore) relayMessage() {}

// FromChild reports whether m travels from the program to the host.
func FromChild(m Message) bool {
	switch m.(type) {
	case Ready, Error, GameOver, SoundEffect, SubmitScore, RestartAck:
		return true
	default:
		return false
	}
}
