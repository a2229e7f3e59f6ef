package domain

import "time"

// Choice is one option of a dilemma. The score and explanation arrive with the
// content payload and are immutable once fetched.
type Choice struct {
	Text        string  `json:"text"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// Dilemma is a single ethical question with its ordered choices. Choice order
// is significant: position determines the display letter (A, B, C, ...) and is
// what gets submitted for history.
type Dilemma struct {
	Question string   `json:"question"`
	Choices  []Choice `json:"choices"`
}

// DilemmaSet is the question bank for one historical period.
type DilemmaSet struct {
	Period   string    `json:"period"`
	Dilemmas []Dilemma `json:"dilemmas"`
}

// AnsweredQuestion is the immutable record of one locked-in answer.
type AnsweredQuestion struct {
	QuestionIndex int     `json:"questionIndex"`
	ChosenLetter  string  `json:"chosenLetter"`
	ChosenText    string  `json:"chosenText"`
	Score         float64 `json:"score"`
	Explanation   string  `json:"explanation"`
}

// ChoiceSubmission is the history-logging payload sent when an answer locks.
type ChoiceSubmission struct {
	Period         string `json:"period"`
	Question       string `json:"question"`
	SelectedAnswer string `json:"selected_answer"`
}

// HistoryGame is one completed play-through as aggregated by the persistence
// layer. TotalScore is the sum over the game's stored choices.
type HistoryGame struct {
	Period     string    `json:"period"`
	TotalScore float64   `json:"total_score"`
	Timestamp  time.Time `json:"timestamp"`
}

// History is the per-user game history view.
type History struct {
	Username string        `json:"username"`
	Games    []HistoryGame `json:"games"`
}

// User is a registered player.
type User struct {
	ID             int64
	Username       string
	Email          string
	HashedPassword string
}
