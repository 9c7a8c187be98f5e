package domain

import (
	"strconv"
	"strings"
)

// Movetext renders the move log as numbered PGN movetext without
// headers, e.g. "1. e4 e5 2. Nf3". This is the `pgn` field of the
// canonical view; the archive wraps it with tag pairs.
func Movetext(moves []Move) string {
	if len(moves) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(moves); i += 2 {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(i/2 + 1))
		b.WriteString(". ")
		b.WriteString(moves[i].SAN)
		if i+1 < len(moves) {
			b.WriteByte(' ')
			b.WriteString(moves[i+1].SAN)
		}
	}
	return b.String()
}
