package app

import (
	"sort"

	"live-quiz-service/internal/domain"
)

// standing is the per-participant input to the ranking.
type standing struct {
	id       string
	name     string
	score    int
	answered int
	correct  int
	avgNanos float64 // mean submission time over answered questions
	joinIdx  int
}

// rankStandings orders participants by score descending. Ties break by more
// correct answers, then earlier average answer time, then join order, so the
// result is a total order reproducible from identical input.
func rankStandings(rows []standing) []domain.LeaderboardEntry {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.correct != b.correct {
			return a.correct > b.correct
		}
		switch {
		case a.answered > 0 && b.answered > 0 && a.avgNanos != b.avgNanos:
			return a.avgNanos < b.avgNanos
		case a.answered > 0 && b.answered == 0:
			return true
		case a.answered == 0 && b.answered > 0:
			return false
		}
		return a.joinIdx < b.joinIdx
	})

	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, domain.LeaderboardEntry{
			ParticipantID: row.id,
			DisplayName:   row.name,
			Score:         row.score,
			Answered:      row.answered,
			Rank:          i + 1,
		})
	}
	return entries
}

// leaderboardLocked snapshots the current standings. Caller holds s.mu.
func (s *Session) leaderboardLocked(final bool) domain.Leaderboard {
	rows := make([]standing, 0, len(s.joinOrder))
	for idx, pid := range s.joinOrder {
		p := s.participants[pid]
		row := standing{
			id:       p.id,
			name:     p.displayName,
			score:    p.score,
			answered: len(p.answers),
			joinIdx:  idx,
		}
		var sum int64
		for _, answer := range p.answers {
			if answer.Correct {
				row.correct++
			}
			sum += answer.SubmittedAt.UnixNano()
		}
		if row.answered > 0 {
			row.avgNanos = float64(sum) / float64(row.answered)
		}
		rows = append(rows, row)
	}

	return domain.Leaderboard{
		SessionID:     s.id,
		QuestionIndex: s.closedThrough,
		Final:         final,
		Entries:       rankStandings(rows),
		UpdatedAt:     s.now(),
	}
}
