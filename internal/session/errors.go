package session

// Static sentinel errors for the command taxonomy. The gateway maps
// them to wire kinds and HTTP status classes.
var (
	ErrNotFound          = errf("session not found")
	ErrCodeTaken         = errf("join code already taken")
	ErrInvalidSeatChoice = errf("invalid seat choice")
	ErrSessionFull       = errf("session already has two players")
	ErrNotAPlayer        = errf("caller holds no seat in this session")
	ErrNotYourTurn       = errf("not caller's turn")
	ErrIllegalMove       = errf("move rejected by the rules oracle")
	ErrGameNotActive     = errf("game is not active")
	ErrGameFinished      = errf("game is already finished")
	ErrConflict          = errf("lost a race on a concurrent mutation")
	ErrNoDrawOffer       = errf("no pending draw offer")
	ErrOwnDrawOffer      = errf("cannot answer own draw offer")
)

// errNoChange aborts a read-modify-write without persisting anything.
// Used for idempotent re-joins: the caller gets the current record back
// and no broadcast-worthy change happens.
var errNoChange = errf("no change")

type staticErr string

func (e staticErr) Error() string { return string(e) }

func errf(s string) error { return staticErr(s) }
