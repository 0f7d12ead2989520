// internal/game/result.go
//
// Outcome of one opponent half-turn.
//
// Responsibilities:
//   - Closed result variants: accepted, empty, invalid, fault.
//   - classify: turn a provider reply (or error) into one of them.
//   - Player-facing messages for rejected opponent words.

package game

// opponentResult is the closed set of ways an opponent half-turn can end.
// applyOpponent switches over every variant.
type opponentResult interface{ opponentResult() }

type (
	accepted struct{ word string }
	empty    struct{}
	invalid  struct {
		word string
		err  *RejectError
	}
	fault struct{ err error }
)

func (accepted) opponentResult() {}
func (empty) opponentResult()    {}
func (invalid) opponentResult()  {}
func (fault) opponentResult()    {}

// classify turns a raw provider reply into an opponentResult, holding the
// opponent to the same chain rules as the player.
func classify(chain []string, minLength int, mv Move, err error) opponentResult {
	if err != nil {
		return fault{err: err}
	}
	word := Normalize(mv.Word)
	if mv.None || word == "" {
		return empty{}
	}
	if verr := Validate(chain, word, minLength); verr != nil {
		rej, _ := verr.(*RejectError)
		return invalid{word: word, err: rej}
	}
	return accepted{word: word}
}

// opponentRejectMessage explains an invalid opponent word to the player.
func opponentRejectMessage(r invalid) string {
	switch r.err.Reason {
	case ReasonDuplicateWord:
		return "opponent used a repeated word (" + r.word + ") and loses a life"
	case ReasonWrongPrefix:
		return "opponent's word " + r.word + " does not start with '" + r.err.Prefix + "', opponent loses a life"
	case ReasonTooShort:
		return "opponent's word " + r.word + " is too short, opponent loses a life"
	}
	return "opponent played an invalid word and loses a life"
}
