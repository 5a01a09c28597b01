package controllers

import (
	"fmt"
	"time"

	"quizapp/backend/config"
	"quizapp/backend/models"
	"quizapp/backend/services"
	"quizapp/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type ExperimentsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewExperimentsController(db *gorm.DB, cfg *config.Config) *ExperimentsController {
	return &ExperimentsController{DB: db, Cfg: cfg}
}

type ExperimentRequest struct {
	Name  string    `json:"name" validate:"required,max=255"`
	Start time.Time `json:"start" validate:"required"`
	Stop  time.Time `json:"stop" validate:"required"`
}

func (r *ExperimentRequest) validate() map[string]string {
	if errs := utils.ValidateStruct(r); errs != nil {
		return errs
	}
	if !r.Stop.After(r.Start) {
		return map[string]string{"stop": "must be after start"}
	}
	return nil
}

// ListExperiments godoc
// @Summary List experiments
// @Description Experiments split into past, present and future
// @Tags experiments
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /experiments [get]
func (ec *ExperimentsController) ListExperiments(c *fiber.Ctx) error {
	phases, err := services.ListExperiments(ec.DB)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, phases)
}

func (ec *ExperimentsController) CreateExperiment(c *fiber.Ctx) error {
	var input ExperimentRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := input.validate(); errs != nil {
		return utils.ValidationError(c, errs)
	}

	exp := models.Experiment{Name: input.Name, Start: input.Start, Stop: input.Stop}
	if err := ec.DB.Create(&exp).Error; err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Created(c, exp)
}

// GetExperiment godoc
// @Summary Experiment landing page
// @Description For participants this claims an assignment set on first visit and returns the assignment to continue with
// @Tags experiments
// @Produce json
// @Param id path int true "Experiment ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /experiments/{id} [get]
func (ec *ExperimentsController) GetExperiment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	exp, err := services.GetExperiment(ec.DB, id)
	if err != nil {
		return utils.HandleError(c, err)
	}

	landing := fiber.Map{
		"experiment": exp,
		"running":    exp.Running(),
	}

	if role, _ := c.Locals("role").(string); role == models.RoleParticipant {
		participant, err := currentParticipant(c, ec.DB)
		if err != nil {
			return utils.HandleError(c, err)
		}
		pe, err := services.GetOrCreateAssignmentSet(ec.DB, participant.ID, exp.ID)
		if err != nil {
			return utils.HandleError(c, err)
		}
		landing["assignment_set"] = pe
		landing["assignment"] = pe.CurrentAssignment()
	}

	return utils.Success(c, fiber.StatusOK, landing)
}

func (ec *ExperimentsController) UpdateExperiment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	exp, err := services.GetExperiment(ec.DB, id)
	if err != nil {
		return utils.HandleError(c, err)
	}

	var input ExperimentRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := input.validate(); errs != nil {
		return utils.ValidationError(c, errs)
	}

	exp.Name, exp.Start, exp.Stop = input.Name, input.Start, input.Stop
	if err := ec.DB.Save(exp).Error; err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, exp)
}

func (ec *ExperimentsController) DeleteExperiment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	if err := services.DeleteExperiment(ec.DB, id); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"next_url": "/experiments"})
}

// GetAssignment godoc
// @Summary Show one assignment to its participant
// @Tags experiments
// @Produce json
// @Param id path int true "Experiment ID"
// @Param aid path int true "Assignment ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /experiments/{id}/assignments/{aid} [get]
func (ec *ExperimentsController) GetAssignment(c *fiber.Ctx) error {
	expID, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	aID, err := paramID(c, "aid")
	if err != nil {
		return utils.HandleError(c, err)
	}
	participant, err := currentParticipant(c, ec.DB)
	if err != nil {
		return utils.HandleError(c, err)
	}

	view, err := services.OpenAssignment(ec.DB, participant.ID, expID, aID)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, view)
}

// AnswerAssignment godoc
// @Summary Record the participant's answer
// @Tags experiments
// @Accept json
// @Produce json
// @Param id path int true "Experiment ID"
// @Param aid path int true "Assignment ID"
// @Param answer body services.Answer true "Answer"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /experiments/{id}/assignments/{aid} [patch]
func (ec *ExperimentsController) AnswerAssignment(c *fiber.Ctx) error {
	expID, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	aID, err := paramID(c, "aid")
	if err != nil {
		return utils.HandleError(c, err)
	}

	var answer services.Answer
	if err := c.BodyParser(&answer); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(answer); errs != nil {
		return utils.ValidationError(c, errs)
	}

	participant, err := currentParticipant(c, ec.DB)
	if err != nil {
		return utils.HandleError(c, err)
	}
	pe, idx, err := services.RecordAnswer(ec.DB, participant.ID, expID, aID, answer)
	if err != nil {
		return utils.HandleError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"progress": pe.Progress,
		"next_url": services.NextURL(pe, idx),
	})
}

func (ec *ExperimentsController) ConfirmDone(c *fiber.Ctx) error {
	expID, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	exp, err := services.GetExperiment(ec.DB, expID)
	if err != nil {
		return utils.HandleError(c, err)
	}
	participant, err := currentParticipant(c, ec.DB)
	if err != nil {
		return utils.HandleError(c, err)
	}
	pe, err := services.FindAssignmentSet(ec.DB, participant.ID, expID)
	if err != nil {
		return utils.HandleError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"experiment":  exp,
		"answered":    pe.Progress,
		"assignments": len(pe.Assignments),
		"complete":    pe.Complete,
	})
}

// Finalize godoc
// @Summary Submit the participant's answers for good
// @Tags experiments
// @Produce json
// @Param id path int true "Experiment ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /experiments/{id}/finalize [patch]
func (ec *ExperimentsController) Finalize(c *fiber.Ctx) error {
	expID, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	participant, err := currentParticipant(c, ec.DB)
	if err != nil {
		return utils.HandleError(c, err)
	}
	if _, err := services.Finalize(ec.DB, participant.ID, expID); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"next_url": fmt.Sprintf("/experiments/%d/done", expID),
	})
}

func (ec *ExperimentsController) Done(c *fiber.Ctx) error {
	expID, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	exp, err := services.GetExperiment(ec.DB, expID)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"experiment": exp, "done": true})
}

func (ec *ExperimentsController) Results(c *fiber.Ctx) error {
	expID, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	results, err := services.Results(ec.DB, expID)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, results)
}

func (ec *ExperimentsController) ListAssignmentSets(c *fiber.Ctx) error {
	expID, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}
	if _, err := services.GetExperiment(ec.DB, expID); err != nil {
		return utils.HandleError(c, err)
	}
	sets, err := services.ListAssignmentSets(ec.DB, expID)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, sets)
}

type AssignmentSetRequest struct {
	Assignments []services.AssignmentSpec `json:"assignments" validate:"required,min=1,dive"`
}

func (ec *ExperimentsController) CreateAssignmentSet(c *fiber.Ctx) error {
	expID, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}

	var input AssignmentSetRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	pe, err := services.CreateTemplateAssignmentSet(ec.DB, expID, input.Assignments)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Created(c, pe)
}

// ImportAssignments godoc
// @Summary Import assignment sets from a workbook
// @Description Reads the "Participant Experiments" and "Assignments" sheets of an xlsx upload
// @Tags experiments
// @Accept mpfd
// @Produce json
// @Param id path int true "Experiment ID"
// @Param assignments formData file true "xlsx workbook"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /experiments/{id}/assignments/import [post]
func (ec *ExperimentsController) ImportAssignments(c *fiber.Ctx) error {
	expID, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}

	header, err := c.FormFile("assignments")
	if err != nil {
		return utils.ValidationError(c, map[string]string{"assignments": "an xlsx file is required"})
	}
	file, err := header.Open()
	if err != nil {
		return utils.HandleError(c, err)
	}
	defer file.Close()

	wb, err := excelize.OpenReader(file)
	if err != nil {
		return utils.BadRequest(c, "Uploaded file is not a valid xlsx workbook")
	}
	defer wb.Close()

	summary, err := services.ImportAssignments(ec.DB, expID, wb)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, summary)
}

func (ec *ExperimentsController) ExportAssignments(c *fiber.Ctx) error {
	expID, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err)
	}

	wb, err := services.ExportWorkbook(ec.DB, expID)
	if err != nil {
		return utils.HandleError(c, err)
	}
	defer wb.Close()

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return utils.HandleError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="experiment-%d-assignments.xlsx"`, expID))
	return c.Send(buf.Bytes())
}
