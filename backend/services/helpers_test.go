package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"quizapp/backend/config"
	"quizapp/backend/models"
	"quizapp/backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		DBDriver: "sqlite",
		DBName:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
	db, err := utils.InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedExperiment(t *testing.T, db *gorm.DB, name string) *models.Experiment {
	t.Helper()
	exp := &models.Experiment{
		Name:  name,
		Start: time.Now().Add(-24 * time.Hour),
		Stop:  time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, db.Create(exp).Error)
	return exp
}

func seedParticipant(t *testing.T, db *gorm.DB, username string) *models.Participant {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         models.RoleParticipant,
	}
	require.NoError(t, db.Create(user).Error)
	p, err := ParticipantForUser(db, user.ID)
	require.NoError(t, err)
	return p
}

// seedQuestion stores an activity of type typ; choice-based types get
// choices "A" (correct) "B" and "C".
func seedQuestion(t *testing.T, db *gorm.DB, typ models.ActivityType) *models.Activity {
	t.Helper()
	act := models.NewActivity(typ)
	act.Question = fmt.Sprintf("%s question", typ)
	act.Explanation = "because"
	if act.HasChoices() {
		act.Choices = []models.Choice{
			{Label: "A", Choice: "first", Correct: true},
			{Label: "B", Choice: "second"},
			{Label: "C", Choice: "third"},
		}
	}
	require.NoError(t, db.Create(act).Error)
	return act
}

func seedTemplate(t *testing.T, db *gorm.DB, experimentID uint, acts ...*models.Activity) *models.ParticipantExperiment {
	t.Helper()
	specs := make([]AssignmentSpec, 0, len(acts))
	for _, a := range acts {
		specs = append(specs, AssignmentSpec{ActivityID: a.ID})
	}
	pe, err := CreateTemplateAssignmentSet(db, experimentID, specs)
	require.NoError(t, err)
	return pe
}

// claimedSet seeds one template of acts and claims it for a new participant.
func claimedSet(t *testing.T, db *gorm.DB, acts ...*models.Activity) (*models.Participant, *models.ParticipantExperiment) {
	t.Helper()
	exp := seedExperiment(t, db, "claimed")
	seedTemplate(t, db, exp.ID, acts...)
	p := seedParticipant(t, db, "p-"+uuid.NewString()[:8])
	pe, err := GetOrCreateAssignmentSet(db, p.ID, exp.ID)
	require.NoError(t, err)
	return p, pe
}

func uintPtr(v uint) *uint { return &v }

func intPtr(v int) *int { return &v }

// sheetRows is an in-memory Workbook.
type sheetRows map[string][][]string

func (s sheetRows) GetRows(sheet string, _ ...excelize.Options) ([][]string, error) {
	rows, ok := s[sheet]
	if !ok {
		return nil, fmt.Errorf("sheet %s does not exist", sheet)
	}
	return rows, nil
}

// errorRecorder counts queries that finished with an error.
type errorRecorder struct {
	logger.Interface
	errors int
}

func (r *errorRecorder) LogMode(logger.LogLevel) logger.Interface { return r }

func (r *errorRecorder) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if err != nil {
		r.errors++
	}
}
