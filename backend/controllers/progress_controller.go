package controllers

import (
	"quizapp/backend/config"
	"quizapp/backend/services"
	"quizapp/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProgressController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewProgressController(db *gorm.DB, cfg *config.Config) *ProgressController {
	return &ProgressController{DB: db, Cfg: cfg}
}

type setProgress struct {
	AssignmentSetID uint `json:"assignment_set_id"`
	ExperimentID    uint `json:"experiment_id"`
	Progress        int  `json:"progress"`
	Assignments     int  `json:"assignments"`
	Complete        bool `json:"complete"`
}

// GetProgress godoc
// @Summary Get participant progress
// @Description Returns how far the caller got in each experiment they joined
// @Tags progress
// @Accept json
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress [get]
func (pc *ProgressController) GetProgress(c *fiber.Ctx) error {
	participant, err := currentParticipant(c, pc.DB)
	if err != nil {
		return utils.HandleError(c, err)
	}

	sets, err := services.ListParticipantSets(pc.DB, participant.ID)
	if err != nil {
		return utils.HandleError(c, err)
	}

	out := make([]setProgress, 0, len(sets))
	for _, pe := range sets {
		out = append(out, setProgress{
			AssignmentSetID: pe.ID,
			ExperimentID:    pe.ExperimentID,
			Progress:        pe.Progress,
			Assignments:     len(pe.Assignments),
			Complete:        pe.Complete,
		})
	}
	return utils.Success(c, fiber.StatusOK, out)
}
