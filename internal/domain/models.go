package domain

// NotStarted is the question index of a quiz awaiting its first advance.
const NotStarted = -1

// Choice is one possible answer of a question.
type Choice struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// Question models an MCQ question. CorrectChoiceID is never sent to players.
type Question struct {
	ID              string   `json:"id" yaml:"id"`
	Title           string   `json:"title" yaml:"title"`
	Choices         []Choice `json:"choices" yaml:"choices"`
	CorrectChoiceID string   `json:"-" yaml:"correctChoiceId"`
}

// Quiz is an ordered collection of questions plus the index of the live one.
type Quiz struct {
	ID                   string     `json:"id" yaml:"id"`
	Title                string     `json:"title" yaml:"title"`
	Questions            []Question `json:"questions" yaml:"questions"`
	CurrentQuestionIndex int        `json:"currentQuestionIndex" yaml:"-"`
}

// ScoreEntry is the cumulative score of one player in one quiz.
type ScoreEntry struct {
	QuizID   string `json:"quizId"`
	PlayerID string `json:"playerId"`
	Points   int    `json:"points"`
}

// Leaderboard is a computed snapshot of a quiz and its scores.
type Leaderboard struct {
	Quiz    Quiz         `json:"quiz"`
	Entries []ScoreEntry `json:"entries"`
}

// AnswerResult is returned to the submitting player only.
type AnswerResult struct {
	Success     bool   `json:"success"`
	RightChoice Choice `json:"rightChoice"`
}

// QuestionEvent announces the new live question of a quiz. Question is nil
// when the quiz has no questions.
type QuestionEvent struct {
	QuizID   string    `json:"quizId"`
	Question *Question `json:"question"`
}

// Player is a registered participant of one quiz.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	QuizID string `json:"quizId"`
}

// PlayerScore is the quiz-side view of a player entity.
type PlayerScore struct {
	ID     string `json:"id"`
	QuizID string `json:"quizId"`
	Points int    `json:"points"`
}

// EntityRef is a partial key used to stitch entities across services.
type EntityRef struct {
	ID     string `json:"id"`
	QuizID string `json:"quizId,omitempty"`
}
