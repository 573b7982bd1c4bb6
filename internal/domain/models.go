package domain

// Question models an MCQ question with four options and one correct option value.
// Prompt doubles as the identity key used for attempt and correctness tracking.
type Question struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Correct string   `json:"correct"`
}

// Key returns the identity key of the question.
func (q Question) Key() string {
	return q.Prompt
}

// HasOption reports whether value is one of the question's options.
func (q Question) HasOption(value string) bool {
	for _, opt := range q.Options {
		if opt == value {
			return true
		}
	}
	return false
}

// QuestionSet is a named, ordered collection of questions.
type QuestionSet struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// QuestionSetSummary is a listing-friendly view of a question set.
type QuestionSetSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// View is what the presentation layer renders for the current question.
type View struct {
	Number      int      `json:"number"` // 1-based
	Total       int      `json:"total"`
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options"` // display order
	SkipVisible bool     `json:"skipVisible"`
}

// FeedbackKind categorises feedback text.
type FeedbackKind string

const (
	FeedbackNone       FeedbackKind = ""
	FeedbackCorrect    FeedbackKind = "correct"
	FeedbackWrong      FeedbackKind = "wrong"
	FeedbackCheckpoint FeedbackKind = "checkpoint"
)

// Feedback is a message shown after an answer or skip.
type Feedback struct {
	Kind    FeedbackKind `json:"kind"`
	Message string       `json:"message"`
}

// AnswerMark tells the presentation layer which option was chosen and which one is correct.
type AnswerMark struct {
	Selected string `json:"selected"`
	Correct  string `json:"correct"`
}

// Cue is an audio notification category.
type Cue string

const (
	CueOpen       Cue = "open"
	CueCorrect    Cue = "correct"
	CueWrong      Cue = "wrong"
	CueCheckpoint Cue = "checkpoint"
)

// Stats is the live scoreboard of a session. Question and Checkpoint are 1-based.
type Stats struct {
	Question   int `json:"question"`
	Total      int `json:"total"`
	Streak     int `json:"streak"`
	Checkpoint int `json:"checkpoint"`
	Correct    int `json:"correct"`
	Wrong      int `json:"wrong"`
}

// TimeEntry records how long a single answered (or skipped) question took.
type TimeEntry struct {
	Ordinal int    `json:"ordinal"`
	Key     string `json:"key"`
	Seconds int    `json:"seconds"`
}

// TimeStats summarises a session's timing.
type TimeStats struct {
	TotalSeconds   int         `json:"totalSeconds"`
	Answered       int         `json:"answered"`
	AverageSeconds int         `json:"averageSeconds"`
	Entries        []TimeEntry `json:"entries"`
	Fastest        *TimeEntry  `json:"fastest,omitempty"`
	Slowest        *TimeEntry  `json:"slowest,omitempty"`
}

// Results is the final report of a finished session.
type Results struct {
	Correct        int        `json:"correct"`
	Wrong          int        `json:"wrong"`
	WrongQuestions []Question `json:"wrongQuestions"`
	ReviewMode     bool       `json:"reviewMode"`
	OfferReview    bool       `json:"offerReview"`
	Time           TimeStats  `json:"time"`
}
