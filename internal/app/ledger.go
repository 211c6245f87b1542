package app

import (
	"sort"

	"quiz-subgraphs/internal/domain"
)

// scoreTable is the cumulative score of every player of one quiz. Points
// only grow until the table is reset by a fresh game.
type scoreTable struct {
	order  []string
	points map[string]int
}

func newScoreTable() scoreTable {
	return scoreTable{points: make(map[string]int)}
}

func (t *scoreTable) add(playerID string, increment int) int {
	if _, ok := t.points[playerID]; !ok {
		t.order = append(t.order, playerID)
	}
	t.points[playerID] += increment
	return t.points[playerID]
}

func (t *scoreTable) get(playerID string) (int, bool) {
	p, ok := t.points[playerID]
	return p, ok
}

func (t *scoreTable) reset() {
	t.order = nil
	t.points = make(map[string]int)
}

// entries lists scores by points descending; ties keep first-answer order.
func (t *scoreTable) entries(quizID string) []domain.ScoreEntry {
	out := make([]domain.ScoreEntry, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, domain.ScoreEntry{QuizID: quizID, PlayerID: id, Points: t.points[id]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Points > out[j].Points
	})
	return out
}

// submitAnswerLocked scores choiceID against the live question. The question
// id sent by the caller (second argument) is not checked; the server's live
// question is authoritative. Repeated submissions accumulate.
func (g *game) submitAnswerLocked(playerID, _, choiceID string) (domain.AnswerResult, error) {
	question, err := g.currentQuestionLocked()
	if err != nil {
		return domain.AnswerResult{}, err
	}

	right, ok := rightChoice(question)
	increment := 0
	if ok && choiceID == right.ID {
		increment = 1
	}
	g.scores.add(playerID, increment)

	return domain.AnswerResult{Success: increment == 1, RightChoice: right}, nil
}

// leaderboardLocked computes a snapshot; entries is never nil.
func (g *game) leaderboardLocked() domain.Leaderboard {
	return domain.Leaderboard{
		Quiz:    g.snapshotLocked(),
		Entries: g.scores.entries(g.quiz.ID),
	}
}

// rightChoice returns the choice marked correct, else the first choice.
func rightChoice(q domain.Question) (domain.Choice, bool) {
	for _, c := range q.Choices {
		if c.ID == q.CorrectChoiceID {
			return c, true
		}
	}
	if len(q.Choices) > 0 {
		return q.Choices[0], true
	}
	return domain.Choice{}, false
}
