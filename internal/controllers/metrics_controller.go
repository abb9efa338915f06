package controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/homefleet/autopi-bridge/internal/config"
	"github.com/homefleet/autopi-bridge/internal/constants"
	"github.com/homefleet/autopi-bridge/internal/services"
	"github.com/homefleet/autopi-bridge/internal/services/autozero"
	"github.com/homefleet/autopi-bridge/internal/services/telemetry"
)

type MetricsController struct {
	Settings *config.Settings
	poller   *services.TelemetryPoller
	readings *telemetry.ReadingStore
	manager  *autozero.Manager
	log      *zerolog.Logger
}

func NewMetricsController(settings *config.Settings, poller *services.TelemetryPoller, readings *telemetry.ReadingStore, manager *autozero.Manager, logger *zerolog.Logger) MetricsController {
	return MetricsController{
		Settings: settings,
		poller:   poller,
		readings: readings,
		manager:  manager,
		log:      logger,
	}
}

// GetVehicleMetrics godoc
// @Description Returns every metric for the vehicle: the full sensor catalog
// @Description plus anything else the device reported. The value field is what
// @Description downstream consumers should render; rawValue is only present
// @Description while the engine holds a metric at zero.
// @Tags        metrics
// @Produce     json
// @Param       vehicleID path int true "vehicle id"
// @Success     200 {object} controllers.VehicleMetricsResp
// @Failure     404 "no vehicle found with that id"
// @Security    BearerAuth
// @Router      /vehicles/{vehicleID}/metrics [get]
func (mc *MetricsController) GetVehicleMetrics(c *fiber.Ctx) error {
	raw := c.Params("vehicleID")
	if _, err := strconv.Atoi(raw); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid vehicle id: "+raw)
	}
	if _, ok := mc.vehicle(raw); !ok {
		return fiber.NewError(fiber.StatusNotFound, "no vehicle found with id "+raw)
	}

	fieldIDs := mc.readings.FieldsForVehicle(raw)
	seen := make(map[string]struct{}, len(fieldIDs))
	for _, id := range fieldIDs {
		seen[id] = struct{}{}
	}
	for _, sensor := range constants.AllSensors() {
		if _, ok := seen[sensor.FieldID]; !ok {
			fieldIDs = append(fieldIDs, sensor.FieldID)
		}
	}
	slices.Sort(fieldIDs)

	now := time.Now()
	resp := VehicleMetricsResp{
		VehicleID: raw,
		Metrics:   make([]MetricResp, 0, len(fieldIDs)),
	}
	for _, fieldID := range fieldIDs {
		resp.Metrics = append(resp.Metrics, mc.renderMetric(raw, fieldID, now))
	}
	return c.JSON(resp)
}

// GetVehicleMetric godoc
// @Description Returns one metric. 404 until the device has reported the field
// @Description at least once.
// @Tags        metrics
// @Produce     json
// @Param       vehicleID path int true "vehicle id"
// @Param       fieldID path string true "full field id, eg. obd.speed.value"
// @Success     200 {object} controllers.MetricResp
// @Failure     404 "no data observed for that field"
// @Security    BearerAuth
// @Router      /vehicles/{vehicleID}/metrics/{fieldID} [get]
func (mc *MetricsController) GetVehicleMetric(c *fiber.Ctx) error {
	raw := c.Params("vehicleID")
	if _, err := strconv.Atoi(raw); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid vehicle id: "+raw)
	}
	if _, ok := mc.vehicle(raw); !ok {
		return fiber.NewError(fiber.StatusNotFound, "no vehicle found with id "+raw)
	}
	fieldID := c.Params("fieldID")

	key := autozero.MetricKey{VehicleID: raw, FieldID: fieldID}
	if _, ok := mc.readings.Get(key); !ok {
		return fiber.NewError(fiber.StatusNotFound, "no data observed for field "+fieldID)
	}
	return c.JSON(mc.renderMetric(raw, fieldID, time.Now()))
}

func (mc *MetricsController) vehicle(rawID string) (*services.AutoPiVehicle, bool) {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return nil, false
	}
	return mc.poller.Vehicle(id)
}

func (mc *MetricsController) renderMetric(vehicleID, fieldID string, now time.Time) MetricResp {
	key := autozero.MetricKey{VehicleID: vehicleID, FieldID: fieldID}
	resp := MetricResp{
		FieldID:         fieldID,
		AutoZeroEnabled: mc.manager.Enabled() && constants.IsAutoZeroField(fieldID),
	}
	if sensor := constants.FindSensor(fieldID); sensor != nil {
		resp.Name = sensor.Name
		resp.Unit = sensor.Unit
		resp.DeviceClass = sensor.DeviceClass
	}

	entry, ok := mc.readings.Get(key)
	if !ok {
		return resp
	}
	resp.Value = entry.Value
	resp.LastSeen = entry.LastSeen
	if entry.LastSeen != nil {
		age := int(now.Sub(*entry.LastSeen).Seconds())
		resp.DataAgeSeconds = &age
	}

	if resp.AutoZeroEnabled {
		resp.AutoZeroActive = mc.manager.IsCurrentlyZeroed(key)
		resp.AutoZeroLastZeroed = mc.manager.ZeroedSince(key)
		if resp.AutoZeroActive {
			resp.RawValue = entry.Value
			resp.Value = mc.manager.CurrentValue(key)
		}
	}
	return resp
}

type VehicleMetricsResp struct {
	VehicleID string       `json:"vehicleId"`
	Metrics   []MetricResp `json:"metrics"`
}

type MetricResp struct {
	FieldID            string     `json:"fieldId"`
	Name               string     `json:"name,omitempty"`
	Unit               string     `json:"unit,omitempty"`
	DeviceClass        string     `json:"deviceClass,omitempty"`
	Value              any        `json:"value"`
	RawValue           any        `json:"rawValue,omitempty"`
	LastSeen           *time.Time `json:"lastSeen,omitempty"`
	DataAgeSeconds     *int       `json:"dataAgeSeconds,omitempty"`
	AutoZeroEnabled    bool       `json:"autoZeroEnabled"`
	AutoZeroActive     bool       `json:"autoZeroActive"`
	AutoZeroLastZeroed *time.Time `json:"autoZeroLastZeroed,omitempty"`
}
