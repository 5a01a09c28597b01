package models

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type ActivityType string

const (
	TypeMultipleChoice ActivityType = "question_mc_singleselect"
	TypeMultiSelect    ActivityType = "question_mc_multiselect"
	TypeScale          ActivityType = "question_mc_singleselect_scale"
	TypeFreeAnswer     ActivityType = "question_freeanswer"
	TypeInteger        ActivityType = "question_integer"
	TypeScorecard      ActivityType = "scorecard"
)

// ActivityTypeNames maps every known activity type to a human readable name.
var ActivityTypeNames = map[ActivityType]string{
	TypeMultipleChoice: "Single select multiple choice",
	TypeMultiSelect:    "Multi select multiple choice",
	TypeScale:          "Likert scale",
	TypeFreeAnswer:     "Free answer",
	TypeInteger:        "Integer answer",
	TypeScorecard:      "Scorecard",
}

// activityKind is the per-variant operation table. Activities dispatch on
// their Type through it instead of through a type hierarchy.
type activityKind struct {
	result     ResultType
	hasChoices bool
	scored     bool
	isCorrect  func(a *Activity, r *Result) bool
}

var activityKinds = map[ActivityType]activityKind{
	TypeMultipleChoice: {result: ResultMultipleChoice, hasChoices: true, scored: true, isCorrect: singleChoiceCorrect},
	TypeScale:          {result: ResultMultipleChoice, hasChoices: true, scored: true, isCorrect: singleChoiceCorrect},
	TypeMultiSelect:    {result: ResultMultiSelect, hasChoices: true, scored: true, isCorrect: multiSelectCorrect},
	TypeFreeAnswer:     {result: ResultFreeAnswer, scored: true, isCorrect: freeAnswerCorrect},
	TypeInteger:        {result: ResultInteger, scored: true, isCorrect: integerCorrect},
	TypeScorecard: {result: ResultScorecard, isCorrect: func(*Activity, *Result) bool {
		return true
	}},
}

// Activity is a unit of work shown to a participant: one of the question
// variants or a scorecard. NumMediaItems is the number of media items an
// assignment of this activity must carry; -1 means any number.
type Activity struct {
	gorm.Model
	Type                ActivityType `gorm:"not null;index" json:"type"`
	Category            string       `json:"category"`
	NumMediaItems       int          `gorm:"not null" json:"num_media_items"`
	IncludeInScorecards bool         `json:"include_in_scorecards"`

	Question    string `json:"question"`
	Explanation string `json:"explanation"`

	// integer questions
	Answer     *int `json:"answer"`
	LowerBound *int `json:"lower_bound"`
	UpperBound *int `json:"upper_bound"`

	// scorecards
	Title  string `json:"title"`
	Prompt string `json:"prompt"`

	Choices  []Choice  `json:"choices,omitempty"`
	Datasets []Dataset `gorm:"many2many:activity_datasets;" json:"datasets,omitempty"`
}

// NewActivity returns an activity of the given type with no media item constraint.
func NewActivity(t ActivityType) *Activity {
	return &Activity{Type: t, NumMediaItems: -1}
}

func IsKnownActivityType(t ActivityType) bool {
	_, ok := activityKinds[t]
	return ok
}

func (a *Activity) IsQuestion() bool {
	return strings.HasPrefix(string(a.Type), "question")
}

func (a *Activity) HasChoices() bool {
	return activityKinds[a.Type].hasChoices
}

// ResultType is the result variant this activity accepts, empty for unknown types.
func (a *Activity) ResultType() ResultType {
	return activityKinds[a.Type].result
}

func (a *Activity) HasChoice(choiceID uint) bool {
	for _, c := range a.Choices {
		if c.ID == choiceID {
			return true
		}
	}
	return false
}

// IsCorrect reports whether r is a correct response. It never panics on a nil
// result; activities of unknown type are never correct.
func (a *Activity) IsCorrect(r *Result) bool {
	kind, ok := activityKinds[a.Type]
	if !ok {
		return false
	}
	return kind.isCorrect(a, r)
}

// GetScore returns 1 or 0 for scored variants and nil for scorecards and
// unknown types.
func (a *Activity) GetScore(r *Result) *int {
	kind, ok := activityKinds[a.Type]
	if !ok || !kind.scored {
		return nil
	}
	score := 0
	if kind.isCorrect(a, r) {
		score = 1
	}
	return &score
}

// SetAnswer sets the expected answer of an integer question, rejecting values
// outside the configured bounds.
func (a *Activity) SetAnswer(answer int) error {
	if err := a.checkBounds(answer); err != nil {
		return err
	}
	a.Answer = &answer
	return nil
}

func (a *Activity) checkBounds(v int) error {
	if a.LowerBound != nil && v < *a.LowerBound {
		return Validationf("answer %d is below lower bound %d", v, *a.LowerBound)
	}
	if a.UpperBound != nil && v > *a.UpperBound {
		return Validationf("answer %d is above upper bound %d", v, *a.UpperBound)
	}
	return nil
}

func (a *Activity) Validate() error {
	if !IsKnownActivityType(a.Type) {
		return Validationf("unknown activity type %q", a.Type)
	}
	if a.NumMediaItems < -1 {
		return Validationf("num_media_items must be -1 or greater")
	}
	if a.LowerBound != nil && a.UpperBound != nil && *a.LowerBound > *a.UpperBound {
		return Validationf("lower bound %d is greater than upper bound %d", *a.LowerBound, *a.UpperBound)
	}
	if a.Answer != nil {
		return a.checkBounds(*a.Answer)
	}
	return nil
}

func (a *Activity) BeforeSave(tx *gorm.DB) error {
	return a.Validate()
}

func (a *Activity) String() string {
	switch {
	case a.Type == TypeScorecard:
		return fmt.Sprintf("Scorecard: %s", a.Title)
	case a.IsQuestion():
		return fmt.Sprintf("%s: %s", ActivityTypeNames[a.Type], a.Question)
	default:
		return fmt.Sprintf("Activity %d", a.ID)
	}
}

func singleChoiceCorrect(_ *Activity, r *Result) bool {
	return r != nil && r.Choice != nil && r.Choice.Correct
}

func multiSelectCorrect(a *Activity, r *Result) bool {
	if r == nil {
		return false
	}
	want := map[uint]struct{}{}
	for _, c := range a.Choices {
		if c.Correct {
			want[c.ID] = struct{}{}
		}
	}
	got := map[uint]struct{}{}
	for _, c := range r.Choices {
		got[c.ID] = struct{}{}
	}
	if len(want) != len(got) {
		return false
	}
	for id := range got {
		if _, ok := want[id]; !ok {
			return false
		}
	}
	return true
}

func freeAnswerCorrect(_ *Activity, r *Result) bool {
	return r != nil && r.Text != ""
}

func integerCorrect(a *Activity, r *Result) bool {
	return r != nil && r.Integer != nil && a.Answer != nil && *r.Integer == *a.Answer
}

// Choice is one selectable option of a choice-based question.
type Choice struct {
	gorm.Model
	ActivityID uint   `gorm:"not null;index" json:"activity_id"`
	Choice     string `json:"choice"`
	Label      string `json:"label"`
	Correct    bool   `json:"correct"`
}

func (c Choice) String() string {
	switch {
	case c.Label != "" && c.Choice != "":
		return c.Label + " - " + c.Choice
	case c.Label != "":
		return c.Label
	default:
		return c.Choice
	}
}
