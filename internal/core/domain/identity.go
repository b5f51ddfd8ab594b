package domain

// IdentityCandidate is a provisional (account, probability) pairing produced
// for one detected face during a recognition attempt. Candidates are
// transient and discarded once the frame decision is made.
type IdentityCandidate struct {
	AccountID   int
	Probability float64
}

// IdentityMatch is the accepted decision for a frame: the single best
// candidate whose probability cleared the match threshold.
type IdentityMatch struct {
	AccountID   int     `json:"account_id"`
	Probability float64 `json:"probability"`
}
