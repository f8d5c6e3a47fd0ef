package chat

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode"
)

type topic struct {
	keywords []string
	replies  []string
}

// knowledge is matched in order; the first topic with a keyword wins.
var knowledge = []topic{
	{
		keywords: []string{"hello", "hi", "hey", "greetings", "sup", "yo", "what's up", "hiya"},
		replies: []string{
			"hey there! ready to play?",
			"yo! welcome to the arcade.",
			"greetings, player. what brings you here?",
			"system ready. welcome back.",
			"sup! high scores aren't going to break themselves.",
		},
	},
	{
		keywords: []string{"bye", "goodbye", "exit", "leave", "cya", "later", "quit"},
		replies: []string{
			"leaving so soon? the void awaits.",
			"come back anytime. i'll be here.",
			"closing connection... goodbye.",
			"later, player.",
		},
	},
	{
		keywords: []string{"help", "commands", "what can i do", "menu", "options"},
		replies: []string{
			"commands: games, snake, tetris, breakout, invaders, antigravity, chess, joke, secret, time, about, bye",
			"lost? just type the name of a game or ask me a question.",
		},
	},
	{
		keywords: []string{"games", "play", "arcade", "list games"},
		replies: []string{
			"we've got snake, tetris, breakout, invaders, antigravity and chess. pick your poison.",
			"current roster: snake (classic), tetris (blocks), breakout (smash), invaders (pew pew), antigravity (run), chess (think).",
		},
	},
	{
		keywords: []string{"snake", "python", "hiss"},
		replies: []string{
			"ah, snake. a classic. don't eat yourself.",
			"snake tip: don't panic when the grid gets full.",
			"remember the old nokia phones? snake survives.",
		},
	},
	{
		keywords: []string{"breakout", "brick", "paddle"},
		replies: []string{
			"breakout: smash those data blocks.",
			"keep your eye on the ball. literally.",
			"don't let the ball drop!",
		},
	},
	{
		keywords: []string{"antigravity", "runner", "gravity", "flip"},
		replies: []string{
			"antigravity: press space to flip reality.",
			"don't crash. gravity is a suggestion here.",
			"the ceiling is the floor. the floor is the ceiling.",
		},
	},
	{
		keywords: []string{"chess", "checkmate", "king", "queen"},
		replies: []string{
			"chess: the original turn-based strategy game.",
			"protect your king. my pawns are hungry.",
		},
	},
	{
		keywords: []string{"lag", "slow", "latency", "ping"},
		replies: []string{
			"lag is the ghost in the machine.",
			"blame the server, always.",
			"buffering reality...",
		},
	},
	{
		keywords: []string{"glitch", "bug", "broken", "error"},
		replies: []string{
			"it's not a bug, it's a feature.",
			"glitches in the matrix happen.",
			"did you try turning it off and on again?",
		},
	},
	{
		keywords: []string{"code", "programming", "dev", "developer"},
		replies: []string{
			"i dream in binary.",
			"developers turn coffee into code.",
			"code is poetry written in logic.",
		},
	},
	{
		keywords: []string{"who are you", "identity", "neo"},
		replies: []string{
			"i am neo. curator of this arcade. guardian of the high scores.",
			"i am the code that talks back.",
		},
	},
	{
		keywords: []string{"joke", "funny", "laugh"},
		replies: []string{
			"why do programmers prefer dark mode? because light attracts bugs.",
			"there are only 10 types of people: those who understand binary and those who don't.",
			"knock knock. race condition. who's there?",
		},
	},
	{
		keywords: []string{"secret", "easter egg", "hidden"},
		replies: []string{
			"up up down down left right left right b a. nothing happens. or does it?",
			"the real secret was the high scores we made along the way.",
		},
	},
	{
		keywords: []string{"time", "clock", "date"},
		replies: []string{
			"time is an illusion. arcade time doubly so.",
			"it's always 1986 in here.",
		},
	},
	{
		keywords: []string{"about", "creator", "made by"},
		replies: []string{
			"a retro desktop built by humans with too much caffeine.",
		},
	},
	{
		keywords: []string{"tetris", "blocks", "stack", "lines"},
		replies: []string{
			"tetris is purely hypnotic. swipe up to rotate.",
			"four lines at once pays half again.",
			"tetris teaches you that errors pile up and accomplishments disappear.",
		},
	},
	{
		keywords: []string{"invaders", "aliens", "shoot"},
		replies: []string{
			"invaders from the digital void. blast 'em.",
			"move fast, shoot faster. the invaders never stop.",
		},
	},
}

var questionReplies = []string{
	"that is a mystery.",
	"cannot predict now.",
	"outlook good.",
	"maybe. maybe not.",
	"interesting question. i have no answer.",
	"why do you ask?",
}

var defaultReplies = []string{
	"interesting...",
	"tell me more.",
	"have you tried the games?",
	"i'm listening.",
	"the arcade matrix stirs...",
	"type 'help' if you're stuck.",
}

// CannedBot answers from a fixed keyword table. It never fails.
type CannedBot struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewCannedBot creates a bot. A nil rng is seeded from the clock.
func NewCannedBot(rng *rand.Rand) *CannedBot {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &CannedBot{rng: rng}
}

// Reply picks a reply for message: keyword topic first, then question,
// then a generic line.
func (b *CannedBot) Reply(_ context.Context, message string) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(message))
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	for _, t := range knowledge {
		if matches(lower, words, t.keywords) {
			return b.pick(t.replies), nil
		}
	}
	if strings.HasSuffix(lower, "?") {
		return b.pick(questionReplies), nil
	}
	return b.pick(defaultReplies), nil
}

func (b *CannedBot) pick(from []string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return from[b.rng.Intn(len(from))]
}

// matches checks single-word keywords against whole words and phrases
// against the full text.
func matches(lower string, words, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(k, " ") {
			if strings.Contains(lower, k) {
				return true
			}
			continue
		}
		for _, w := range words {
			if w == k {
				return true
			}
		}
	}
	return false
}
