package models

import (
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

type ResultType string

const (
	ResultMultipleChoice ResultType = "mc_singleselect_result"
	ResultMultiSelect    ResultType = "mc_multiselect_result"
	ResultFreeAnswer     ResultType = "freeanswer_result"
	ResultInteger        ResultType = "integer_result"
	ResultScorecard      ResultType = "scorecard_result"
)

// Result is a participant's answer to one assignment. Which of the payload
// fields is meaningful depends on Type.
type Result struct {
	gorm.Model
	AssignmentID uint       `gorm:"uniqueIndex;not null" json:"assignment_id"`
	Type         ResultType `gorm:"not null" json:"type"`
	ChoiceID     *uint      `json:"choice_id"`
	Choice       *Choice    `json:"choice,omitempty"`
	Choices      []Choice   `gorm:"many2many:result_choices;" json:"choices,omitempty"`
	Text         string     `json:"text"`
	Integer      *int       `json:"integer"`
}

func (r *Result) ChoiceIDs() []uint {
	ids := make([]uint, 0, len(r.Choices))
	for _, c := range r.Choices {
		ids = append(ids, c.ID)
	}
	return ids
}

func (r *Result) String() string {
	switch r.Type {
	case ResultMultipleChoice:
		if r.Choice == nil {
			return "<no choice>"
		}
		return r.Choice.String()
	case ResultMultiSelect:
		parts := make([]string, 0, len(r.Choices))
		for _, c := range r.Choices {
			parts = append(parts, c.String())
		}
		return strings.Join(parts, ", ")
	case ResultFreeAnswer:
		return r.Text
	case ResultInteger:
		if r.Integer == nil {
			return ""
		}
		return strconv.Itoa(*r.Integer)
	case ResultScorecard:
		return "Scorecard"
	default:
		return fmt.Sprintf("Result %d", r.ID)
	}
}
