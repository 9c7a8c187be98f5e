package gamedto

// Auth commands.

type SignupRequest struct {
	Username    string `json:"username"`
	NewPassword string `json:"newPassword"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	OK       bool   `json:"ok"`
	Token    string `json:"token,omitempty"`
	Username string `json:"username,omitempty"`
}

// Game commands.

type CreateRequest struct {
	Color   string `json:"color"`
	BaseMin int    `json:"baseMin,omitempty"`
}

type CreateResponse struct {
	OK       bool   `json:"ok"`
	JoinCode string `json:"joinCode"`
	Seat     string `json:"seat"`
}

type JoinRequest struct {
	GameCode string `json:"gameCode"`
}

type MoveRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// CommandResponse is returned by every session-scoped command. The
// embedded view keeps the response shape identical to the broadcast
// payload; Seat is the caller's own derived seat.
type CommandResponse struct {
	OK   bool   `json:"ok"`
	Seat string `json:"seat,omitempty"`
	SessionView
}

// ErrorResponse wraps a DomainError for transport.
type ErrorResponse struct {
	Error DomainError `json:"error"`
}
