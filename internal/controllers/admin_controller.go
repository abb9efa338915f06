package controllers

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/homefleet/autopi-bridge/internal/config"
	"github.com/homefleet/autopi-bridge/internal/controllers/helpers"
	"github.com/homefleet/autopi-bridge/internal/services"
	"github.com/homefleet/autopi-bridge/internal/services/autozero"
)

type AdminController struct {
	Settings *config.Settings
	manager  *autozero.Manager
	backfill services.EventsBackfillService
	log      *zerolog.Logger
}

func NewAdminController(settings *config.Settings, manager *autozero.Manager, backfill services.EventsBackfillService, logger *zerolog.Logger) AdminController {
	return AdminController{
		Settings: settings,
		manager:  manager,
		backfill: backfill,
		log:      logger,
	}
}

// GetAutoZeroStates godoc
// @Description Dumps the currently zeroed metrics, in stable order. Intended
// @Description for operators debugging why a sensor renders as zero.
// @Tags        admin
// @Produce     json
// @Success     200 {object} controllers.AutoZeroStatesResp
// @Security    PreSharedKeyAuth
// @Router      /admin/autozero/states [get]
func (ac *AdminController) GetAutoZeroStates(c *fiber.Ctx) error {
	zeroed := ac.manager.ZeroedMetrics()
	return c.JSON(AutoZeroStatesResp{
		Enabled:       ac.manager.Enabled(),
		Count:         len(zeroed),
		ZeroedMetrics: zeroed,
	})
}

// StartBackfill godoc
// @Description Enqueues an event history replay for one vehicle. The task runs
// @Description asynchronously; poll the returned id for progress.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Param       request body controllers.BackfillRequest true "vehicle and day span"
// @Success     201 {object} helpers.CreateResponse
// @Failure     400 "validation failed"
// @Security    PreSharedKeyAuth
// @Router      /admin/backfill [post]
func (ac *AdminController) StartBackfill(c *fiber.Ctx) error {
	req := BackfillRequest{}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unable to parse request body")
	}
	if err := req.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	taskID, err := ac.backfill.StartBackfill(req.VehicleID, req.Days)
	if err != nil {
		return errors.Wrap(err, "failed to enqueue backfill task")
	}

	logger := helpers.GetLogger(c, ac.log)
	logger.Info().Int("vehicleId", req.VehicleID).Int("days", req.Days).Str("taskId", taskID).
		Msg("Enqueued events backfill.")

	return c.Status(fiber.StatusCreated).JSON(helpers.CreateResponse{ID: taskID})
}

// GetBackfillStatus godoc
// @Description Returns the persisted state of a backfill task.
// @Tags        admin
// @Produce     json
// @Param       taskID path string true "task id"
// @Success     200 {object} services.BackfillTask
// @Failure     404 "task not found"
// @Security    PreSharedKeyAuth
// @Router      /admin/backfill/{taskID} [get]
func (ac *AdminController) GetBackfillStatus(c *fiber.Ctx) error {
	taskID := c.Params("taskID")
	task, err := ac.backfill.GetTaskStatus(c.Context(), taskID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no task found with id "+taskID)
		}
		return err
	}
	return c.JSON(task)
}

type AutoZeroStatesResp struct {
	Enabled       bool                    `json:"enabled"`
	Count         int                     `json:"count"`
	ZeroedMetrics []autozero.ZeroedMetric `json:"zeroedMetrics"`
}

type BackfillRequest struct {
	VehicleID int `json:"vehicle_id"`
	// Days of history to replay. Zero picks the configured default.
	Days int `json:"days"`
}

func (b *BackfillRequest) Validate() error {
	return validation.ValidateStruct(b,
		validation.Field(&b.VehicleID, validation.Required, validation.Min(1)),
		validation.Field(&b.Days, validation.Min(0), validation.Max(365)),
	)
}
