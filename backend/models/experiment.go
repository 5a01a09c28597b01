package models

import (
	"time"

	"gorm.io/gorm"
)

type Experiment struct {
	gorm.Model
	Name                   string                  `gorm:"not null" json:"name"`
	Start                  time.Time               `gorm:"not null" json:"start"`
	Stop                   time.Time               `gorm:"not null" json:"stop"`
	ParticipantExperiments []ParticipantExperiment `json:"participant_experiments,omitempty"`
	Assignments            []Assignment            `json:"assignments,omitempty"`
}

// RunningAt reports whether now falls inside [Start, Stop], bounds included.
func (e *Experiment) RunningAt(now time.Time) bool {
	return !now.Before(e.Start) && !now.After(e.Stop)
}

func (e *Experiment) Running() bool {
	return e.RunningAt(time.Now())
}

// Phase places the experiment relative to now: "past", "present" or "future".
func (e *Experiment) Phase(now time.Time) string {
	switch {
	case now.After(e.Stop):
		return "past"
	case now.Before(e.Start):
		return "future"
	default:
		return "present"
	}
}

// ParticipantExperiment (assignment set) binds a participant to an ordered
// list of assignments in one experiment. A row without a participant is a
// template waiting in the experiment's pool.
type ParticipantExperiment struct {
	gorm.Model
	ParticipantID *uint        `gorm:"uniqueIndex:idx_participant_experiment" json:"participant_id"`
	Participant   *Participant `json:"participant,omitempty"`
	ExperimentID  uint         `gorm:"uniqueIndex:idx_participant_experiment;not null" json:"experiment_id"`
	Progress      int          `gorm:"not null" json:"progress"`
	Complete      bool         `gorm:"not null" json:"complete"`
	Assignments   []Assignment `json:"assignments,omitempty"`
}

func (pe *ParticipantExperiment) IsTemplate() bool {
	return pe.ParticipantID == nil
}

func (pe *ParticipantExperiment) OwnedBy(participantID uint) bool {
	return pe.ParticipantID != nil && *pe.ParticipantID == participantID
}

// IndexOf returns the position of the assignment in the set, or -1.
func (pe *ParticipantExperiment) IndexOf(assignmentID uint) int {
	for i := range pe.Assignments {
		if pe.Assignments[i].ID == assignmentID {
			return i
		}
	}
	return -1
}

// CurrentAssignment returns the assignment a participant should see next.
// A complete set reviews from the start; an out-of-range cursor falls back
// to the first assignment.
func (pe *ParticipantExperiment) CurrentAssignment() *Assignment {
	if len(pe.Assignments) == 0 {
		return nil
	}
	if pe.Complete {
		return &pe.Assignments[0]
	}
	if pe.Progress < 0 || pe.Progress >= len(pe.Assignments) {
		return &pe.Assignments[0]
	}
	return &pe.Assignments[pe.Progress]
}
