package controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/homefleet/autopi-bridge/internal/config"
	"github.com/homefleet/autopi-bridge/internal/services"
)

type VehiclesController struct {
	Settings *config.Settings
	poller   *services.TelemetryPoller
	log      *zerolog.Logger
}

func NewVehiclesController(settings *config.Settings, poller *services.TelemetryPoller, logger *zerolog.Logger) VehiclesController {
	return VehiclesController{
		Settings: settings,
		poller:   poller,
		log:      logger,
	}
}

// vehicleIDParam parses the path parameter and confirms the vehicle is known.
func (vc *VehiclesController) vehicleIDParam(c *fiber.Ctx) (int, error) {
	raw := c.Params("vehicleID")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid vehicle id: "+raw)
	}
	if _, ok := vc.poller.Vehicle(id); !ok {
		return 0, fiber.NewError(fiber.StatusNotFound, "no vehicle found with id "+raw)
	}
	return id, nil
}

// GetVehicles godoc
// @Description Lists all vehicles on the account along with poll loop health.
// @Tags        vehicles
// @Produce     json
// @Success     200 {object} controllers.VehicleListResp
// @Security    BearerAuth
// @Router      /vehicles [get]
func (vc *VehiclesController) GetVehicles(c *fiber.Ctx) error {
	vehicles := vc.poller.Vehicles()
	resp := VehicleListResp{
		Vehicles: make([]VehicleResp, 0, len(vehicles)),
		Stats:    vc.poller.Stats(),
	}
	for i := range vehicles {
		resp.Vehicles = append(resp.Vehicles, vc.renderVehicle(&vehicles[i], false))
	}
	return c.JSON(resp)
}

// GetVehicle godoc
// @Description Returns one vehicle profile with its latest derived state.
// @Tags        vehicles
// @Produce     json
// @Param       vehicleID path int true "vehicle id"
// @Success     200 {object} controllers.VehicleResp
// @Failure     404 "no vehicle found with that id"
// @Security    BearerAuth
// @Router      /vehicles/{vehicleID} [get]
func (vc *VehiclesController) GetVehicle(c *fiber.Ctx) error {
	id, err := vc.vehicleIDParam(c)
	if err != nil {
		return err
	}
	vehicle, _ := vc.poller.Vehicle(id)
	return c.JSON(vc.renderVehicle(vehicle, true))
}

func (vc *VehiclesController) renderVehicle(v *services.AutoPiVehicle, detail bool) VehicleResp {
	resp := VehicleResp{
		ID:                v.ID,
		Name:              v.DisplayName(),
		VIN:               v.Vin,
		LicensePlate:      v.LicensePlate,
		Make:              v.Make,
		Model:             v.Model,
		Year:              v.Year,
		Type:              v.Type,
		DeviceCount:       len(v.Devices),
		LastCommunication: vc.poller.LastCommunication(v.ID),
	}
	if !detail {
		return resp
	}
	resp.Devices = v.Devices
	if v.BatteryNominalVoltage > 0 {
		resp.BatteryNominalVoltage = &v.BatteryNominalVoltage
	}
	resp.Position = vc.poller.Position(v.ID)
	resp.Charging = vc.poller.ChargingInfo(v.ID)
	if dtcs := vc.poller.DTCs(v.ID); len(dtcs) > 0 {
		resp.DTCs = dtcs
	}
	return resp
}

// GetVehiclePosition godoc
// @Description Returns the newest GPS fix for the vehicle. Accuracy is
// @Description estimated from the satellite count.
// @Tags        vehicles
// @Produce     json
// @Param       vehicleID path int true "vehicle id"
// @Success     200 {object} controllers.VehiclePositionResp
// @Failure     404 "no position seen yet"
// @Security    BearerAuth
// @Router      /vehicles/{vehicleID}/position [get]
func (vc *VehiclesController) GetVehiclePosition(c *fiber.Ctx) error {
	id, err := vc.vehicleIDParam(c)
	if err != nil {
		return err
	}
	pos := vc.poller.Position(id)
	if pos == nil {
		return fiber.NewError(fiber.StatusNotFound, "no position recorded for vehicle "+c.Params("vehicleID"))
	}
	return c.JSON(VehiclePositionResp{
		Timestamp:     pos.Timestamp,
		Latitude:      pos.Latitude,
		Longitude:     pos.Longitude,
		Altitude:      pos.Altitude,
		Speed:         pos.Speed,
		Course:        pos.Course,
		NumSatellites: pos.NumSatellites,
		AccuracyM:     pos.LocationAccuracy(),
	})
}

// GetVehicleTrips godoc
// @Description Lists the most recent trips for the vehicle, newest first.
// @Tags        vehicles
// @Produce     json
// @Param       vehicleID path int true "vehicle id"
// @Success     200 {object} controllers.VehicleTripsResp
// @Security    BearerAuth
// @Router      /vehicles/{vehicleID}/trips [get]
func (vc *VehiclesController) GetVehicleTrips(c *fiber.Ctx) error {
	id, err := vc.vehicleIDParam(c)
	if err != nil {
		return err
	}
	return c.JSON(VehicleTripsResp{Trips: vc.poller.Trips(id)})
}

// GetVehicleEvents godoc
// @Description Lists vehicle events seen in the most recent polling window.
// @Tags        vehicles
// @Produce     json
// @Param       vehicleID path int true "vehicle id"
// @Success     200 {object} controllers.VehicleEventsResp
// @Security    BearerAuth
// @Router      /vehicles/{vehicleID}/events [get]
func (vc *VehiclesController) GetVehicleEvents(c *fiber.Ctx) error {
	id, err := vc.vehicleIDParam(c)
	if err != nil {
		return err
	}
	return c.JSON(VehicleEventsResp{Events: vc.poller.Events(id)})
}

// GetFleetAlerts godoc
// @Description Returns open fleet alerts flattened across severities.
// @Tags        fleet
// @Produce     json
// @Success     200 {object} controllers.FleetAlertsResp
// @Security    BearerAuth
// @Router      /fleet/alerts [get]
func (vc *VehiclesController) GetFleetAlerts(c *fiber.Ctx) error {
	alerts := vc.poller.Alerts()
	return c.JSON(FleetAlertsResp{Alerts: alerts, Total: len(alerts)})
}

type VehicleListResp struct {
	Vehicles []VehicleResp      `json:"vehicles"`
	Stats    services.PollStats `json:"stats"`
}

type VehicleResp struct {
	ID                    int                       `json:"id"`
	Name                  string                    `json:"name"`
	VIN                   string                    `json:"vin,omitempty"`
	LicensePlate          string                    `json:"licensePlate,omitempty"`
	Make                  int                       `json:"make,omitempty"`
	Model                 int                       `json:"model,omitempty"`
	Year                  int                       `json:"year,omitempty"`
	Type                  string                    `json:"type,omitempty"`
	DeviceCount           int                       `json:"deviceCount"`
	Devices               []string                  `json:"devices,omitempty"`
	BatteryNominalVoltage *int                      `json:"batteryNominalVoltage,omitempty"`
	LastCommunication     *time.Time                `json:"lastCommunication,omitempty"`
	Position              *services.VehiclePosition `json:"position,omitempty"`
	Charging              *services.ChargingSession `json:"charging,omitempty"`
	DTCs                  []services.DTCEntry       `json:"dtcs,omitempty"`
}

type VehiclePositionResp struct {
	Timestamp     time.Time `json:"timestamp"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Altitude      float64   `json:"altitude"`
	Speed         float64   `json:"speed"`
	Course        float64   `json:"course"`
	NumSatellites int       `json:"numSatellites"`
	AccuracyM     float64   `json:"accuracyM"`
}

type VehicleTripsResp struct {
	Trips []services.VehicleTrip `json:"trips"`
}

type VehicleEventsResp struct {
	Events []services.VehicleEvent `json:"events"`
}

type FleetAlertsResp struct {
	Alerts []services.FleetAlert `json:"alerts"`
	Total  int                   `json:"total"`
}
