package table

import (
	"math/rand"
	"sync"

	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/protocol"
)

// Deck is the shuffled draw pile for one table (spec section 3): 52 ×
// number_decks cards, drawn from the tail, reshuffled from a fresh shoe
// whenever it runs out.
type Deck struct {
	mu       sync.Mutex
	numDecks int
	rng      *rand.Rand
	cards    []protocol.Card
}

// NewDeck builds and shuffles a shoe of numDecks standard decks using rng.
func NewDeck(numDecks int, rng *rand.Rand) *Deck {
	d := &Deck{numDecks: numDecks, rng: rng}
	d.reshuffle()
	return d
}

func (d *Deck) reshuffle() {
	d.cards = protocol.NewShoe(d.numDecks)
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Draw removes and returns the card at the tail of the deck, reshuffling
// a fresh shoe first if the deck is empty.
func (d *Deck) Draw() protocol.Card {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.cards) == 0 {
		d.reshuffle()
	}
	last := len(d.cards) - 1
	c := d.cards[last]
	d.cards = d.cards[:last]
	return c
}
