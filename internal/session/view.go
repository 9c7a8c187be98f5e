package session

import (
	"github.com/lanepark/chesshall/internal/domain"
	"github.com/lanepark/chesshall/pkg/gamedto"
)

// ToView projects a session record into the canonical view shared by
// command responses and room broadcasts. Identities never cross this
// boundary; viewers derive their own seat from their own identity.
func ToView(rec *domain.Session) *gamedto.SessionView {
	v := &gamedto.SessionView{
		JoinCode:  rec.JoinCode,
		Status:    string(rec.Status),
		WhiteName: rec.WhiteName,
		BlackName: rec.BlackName,
		FEN:       rec.FEN,
		PGN:       rec.PGN,
		Moves:     make([]gamedto.MoveDTO, 0, len(rec.Moves)),
	}
	for _, mv := range rec.Moves {
		v.Moves = append(v.Moves, gamedto.MoveDTO{SAN: mv.SAN, From: mv.From, To: mv.To})
	}
	if rec.Result != "" {
		r := string(rec.Result)
		v.Result = &r
	}
	if rec.DrawOfferedBy != domain.SeatNone {
		d := string(rec.DrawOfferedBy)
		v.DrawOfferedBy = &d
	}
	return v
}
