package gesture

import "time"

type vote struct {
	letter     string
	confidence float64
}

// StabilizerState is the outcome of one stabilizer step.
type StabilizerState struct {
	// Stable is the letter holding the vote majority, or "".
	Stable string
	// MeanConfidence averages every vote in the window; empty votes count as 0.
	MeanConfidence float64
	// Emitted is the letter appended to the text in this step, or "".
	Emitted string
}

// Stabilizer turns per-frame results into a debounced letter stream using
// a sliding majority vote. It is not safe for concurrent use.
type Stabilizer struct {
	params Params
	votes  []vote

	lastLetter string
	lastEmit   time.Time
	text       []byte
}

// NewStabilizer creates a Stabilizer with an empty window.
func NewStabilizer(params Params) *Stabilizer {
	return &Stabilizer{
		params: params,
		votes:  make([]vote, 0, params.VoteWindow),
	}
}

// Push records r as the vote for the frame observed at now and applies the
// emission rule.
func (s *Stabilizer) Push(r Result, now time.Time) StabilizerState {
	v := vote{}
	if r.HasLetter() && r.Confidence >= s.params.MinVoteConfidence {
		v = vote{letter: r.Letter, confidence: r.Confidence}
	}

	if len(s.votes) >= s.params.VoteWindow {
		copy(s.votes, s.votes[1:])
		s.votes = s.votes[:len(s.votes)-1]
	}
	s.votes = append(s.votes, v)

	state := StabilizerState{
		Stable:         s.stableLetter(),
		MeanConfidence: s.meanConfidence(),
	}
	if state.Stable != "" && s.emit(state.Stable, now) {
		state.Emitted = state.Stable
	}
	return state
}

// ClearVotes empties the vote window and keeps the text and emission state.
func (s *Stabilizer) ClearVotes() {
	s.votes = s.votes[:0]
}

// Reset clears the vote window, the text and the emission state.
func (s *Stabilizer) Reset() {
	s.ClearVotes()
	s.Forget()
	s.text = s.text[:0]
}

// Forget clears the last emitted letter so that the next stable letter is
// emitted right away.
func (s *Stabilizer) Forget() {
	s.lastLetter = ""
	s.lastEmit = time.Time{}
}

// Text returns the accumulated letter stream.
func (s *Stabilizer) Text() string {
	return string(s.text)
}

// TakeText returns the accumulated text and empties it.
func (s *Stabilizer) TakeText() string {
	t := string(s.text)
	s.text = s.text[:0]
	return t
}

// Votes returns the number of votes in the window.
func (s *Stabilizer) Votes() int {
	return len(s.votes)
}

// emit appends letter when it differs from the last emitted letter or the
// hold interval has passed since the last emission.
func (s *Stabilizer) emit(letter string, now time.Time) bool {
	if letter == s.lastLetter && now.Sub(s.lastEmit) < s.params.Hold {
		return false
	}
	s.text = append(s.text, letter...)
	s.lastLetter = letter
	s.lastEmit = now
	return true
}

func (s *Stabilizer) stableLetter() string {
	counts := make(map[string]int, len(s.votes))
	for _, v := range s.votes {
		if v.letter != "" {
			counts[v.letter]++
		}
	}
	// VoteMajority is a strict majority of the window, so at most one
	// letter can reach it.
	for letter, n := range counts {
		if n >= s.params.VoteMajority {
			return letter
		}
	}
	return ""
}

func (s *Stabilizer) meanConfidence() float64 {
	if len(s.votes) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s.votes {
		sum += v.confidence
	}
	return sum / float64(len(s.votes))
}
