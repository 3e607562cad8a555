// Package streak tracks consecutive win/loss runs of closed trades.
package streak

// Kind is the side of zero a closed trade landed on.
type Kind int

const (
	// KindNone is the state before the first trade is recorded.
	KindNone Kind = iota
	KindWon
	KindLost
)

func (k Kind) String() string {
	switch k {
	case KindWon:
		return "Won"
	case KindLost:
		return "Lost"
	default:
		return "None"
	}
}

// Classify returns KindWon for pnl >= 0 and KindLost otherwise.
func Classify(pnl float64) Kind {
	if pnl >= 0 {
		return KindWon
	}

	return KindLost
}

// Tracker maintains the running win/loss streak state.
//
// On every sign flip the opposite kind's running counter is appended to its
// history, including the very first trade of a session. The first trade
// therefore always leaves a 0 entry in the opposite history.
type Tracker struct {
	currentKind Kind
	wonCurrent  int
	lostCurrent int
	wonHistory  []int
	lostHistory []int
}

// NewTracker creates a tracker in its initial state.
func NewTracker() *Tracker {
	return &Tracker{
		currentKind: KindNone,
		wonCurrent:  0,
		lostCurrent: 0,
		wonHistory:  make([]int, 0),
		lostHistory: make([]int, 0),
	}
}

// Record classifies a closed trade and updates the run state.
func (t *Tracker) Record(pnl float64) Kind {
	kind := Classify(pnl)

	if kind == t.currentKind {
		t.incrementCurrent(kind)

		return kind
	}

	t.currentKind = kind

	switch kind {
	case KindWon:
		t.lostHistory = append(t.lostHistory, t.lostCurrent)
		t.lostCurrent = 0
	case KindLost:
		t.wonHistory = append(t.wonHistory, t.wonCurrent)
		t.wonCurrent = 0
	}

	t.incrementCurrent(kind)

	return kind
}

// CurrentKind returns the kind of the still-open run.
func (t *Tracker) CurrentKind() Kind {
	return t.currentKind
}

// Current returns the length of the open run of the given kind. It is 0 when
// the other kind is running.
func (t *Tracker) Current(kind Kind) int {
	switch kind {
	case KindWon:
		return t.wonCurrent
	case KindLost:
		return t.lostCurrent
	default:
		return 0
	}
}

// WonHistory returns a copy of the completed won-run lengths in order.
func (t *Tracker) WonHistory() []int {
	return append([]int(nil), t.wonHistory...)
}

// LostHistory returns a copy of the completed lost-run lengths in order.
func (t *Tracker) LostHistory() []int {
	return append([]int(nil), t.lostHistory...)
}

// History returns a copy of the completed run lengths of the given kind.
func (t *Tracker) History(kind Kind) []int {
	switch kind {
	case KindWon:
		return t.WonHistory()
	case KindLost:
		return t.LostHistory()
	default:
		return nil
	}
}

// Reset returns the tracker to its initial state.
func (t *Tracker) Reset() {
	t.currentKind = KindNone
	t.wonCurrent = 0
	t.lostCurrent = 0
	t.wonHistory = make([]int, 0)
	t.lostHistory = make([]int, 0)
}

//nolint:funcorder // helper used by Record
func (t *Tracker) incrementCurrent(kind Kind) {
	if kind == KindWon {
		t.wonCurrent++
	} else {
		t.lostCurrent++
	}
}
