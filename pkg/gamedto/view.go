package gamedto

// MoveDTO is one applied half-move as exposed on the wire.
type MoveDTO struct {
	SAN  string `json:"san"`
	From string `json:"from"`
	To   string `json:"to"`
}

// SessionView is the canonical projection of a session record. Direct
// command responses and `game:update` pushes share this exact shape, so
// a command's response and its broadcast are observably identical. It
// carries display names only, never identities, and never which
// connection holds which seat.
type SessionView struct {
	JoinCode      string    `json:"joinCode"`
	Status        string    `json:"status"`
	Result        *string   `json:"result"`
	WhiteName     string    `json:"whiteName"`
	BlackName     string    `json:"blackName"`
	FEN           string    `json:"fen"`
	PGN           string    `json:"pgn"`
	Moves         []MoveDTO `json:"moves"`
	DrawOfferedBy *string   `json:"drawOfferedBy"`
}
