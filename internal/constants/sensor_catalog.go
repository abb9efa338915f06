package constants

// SensorDefinition describes one known AutoPi data field: how it is named and
// rendered downstream, and whether the auto-zero engine applies to it.
type SensorDefinition struct {
	FieldID     string
	Name        string
	Unit        string
	DeviceClass string
	Icon        string
	StateClass  string
	Diagnostic  bool
	// AutoZero marks fields whose stale readings render as zero. These are
	// live-engine measurements that are meaningless once the vehicle stops
	// reporting, unlike odometers or battery levels.
	AutoZero bool
}

// sensorCatalog is the set of data fields the bridge understands. Fields the
// upstream API reports outside this list are stored and served raw but get no
// friendly metadata and never auto-zero.
var sensorCatalog = []SensorDefinition{
	{FieldID: "obd.bat.level", Name: "Battery Charge Level (OBD)", Unit: "%", DeviceClass: DeviceClassBattery, Icon: "mdi:battery", StateClass: StateClassMeasurement},
	{FieldID: "obd.bat.voltage", Name: "Battery Voltage (OBD)", Unit: "V", DeviceClass: DeviceClassVoltage, Icon: "mdi:lightning-bolt", StateClass: StateClassMeasurement},
	{FieldID: "obd.ambient_air_temp.value", Name: "Ambient Temperature (OBD)", Unit: "°C", DeviceClass: DeviceClassTemperature, Icon: "mdi:thermometer", StateClass: StateClassMeasurement},
	{FieldID: "obd.coolant_temp.value", Name: "Coolant Temperature (OBD)", Unit: "°C", DeviceClass: DeviceClassTemperature, Icon: "mdi:thermometer", StateClass: StateClassMeasurement, AutoZero: true},
	{FieldID: "obd.distance_since_codes_clear.value", Name: "Distance Since DTC Clear (OBD)", Unit: "km", DeviceClass: DeviceClassDistance, Icon: "mdi:road-variant", StateClass: StateClassTotalIncreasing, Diagnostic: true},
	{FieldID: "obd.engine_load.value", Name: "Engine Load (OBD)", Unit: "%", Icon: "mdi:gauge", StateClass: StateClassMeasurement, AutoZero: true},
	{FieldID: "obd.fuel_level.value", Name: "Fuel Level (OBD)", Unit: "%", Icon: "mdi:gas-station", StateClass: StateClassMeasurement},
	{FieldID: "obd.intake_temp.value", Name: "Intake Temperature (OBD)", Unit: "°C", DeviceClass: DeviceClassTemperature, Icon: "mdi:thermometer", StateClass: StateClassMeasurement},
	{FieldID: "obd.number_of_dtc.value", Name: "DTC Count", Icon: "mdi:alert-circle", StateClass: StateClassMeasurement, Diagnostic: true},
	{FieldID: "obd.obd_oem_fuel_level.value", Name: "Fuel Volume (OBD)", Unit: "L", DeviceClass: DeviceClassVolumeStorage, Icon: "mdi:fuel", StateClass: StateClassMeasurement},
	{FieldID: "obd.rpm.value", Name: "Engine RPM (OBD)", Unit: "rpm", Icon: "mdi:engine", StateClass: StateClassMeasurement, AutoZero: true},
	{FieldID: "obd.run_time.value", Name: "Engine Run Time (OBD)", Unit: "s", DeviceClass: DeviceClassDuration, Icon: "mdi:timer", StateClass: StateClassMeasurement, AutoZero: true},
	{FieldID: "obd.speed.value", Name: "Vehicle Speed (OBD)", Unit: "km/h", DeviceClass: DeviceClassSpeed, Icon: "mdi:speedometer", StateClass: StateClassMeasurement, AutoZero: true},
	{FieldID: "obd.throttle_pos.value", Name: "Throttle Position (OBD)", Unit: "%", Icon: "mdi:gas-pedal", StateClass: StateClassMeasurement, AutoZero: true},
	{FieldID: "std.accelerometer_axis_x.value", Name: "X-Axis Acceleration", Unit: "g", Icon: "mdi:axis-x-arrow", StateClass: StateClassMeasurement, AutoZero: true},
	{FieldID: "std.accelerometer_axis_y.value", Name: "Y-Axis Acceleration", Unit: "g", Icon: "mdi:axis-y-arrow", StateClass: StateClassMeasurement, AutoZero: true},
	{FieldID: "std.accelerometer_axis_z.value", Name: "Z-Axis Acceleration", Unit: "g", Icon: "mdi:axis-z-arrow", StateClass: StateClassMeasurement, AutoZero: true},
	{FieldID: "std.battery_current.value", Name: "Battery Current", Unit: "A", DeviceClass: DeviceClassCurrent, Icon: "mdi:current-dc", StateClass: StateClassMeasurement},
	{FieldID: "std.battery_level.value", Name: "Tracker Battery", Unit: "%", DeviceClass: DeviceClassBattery, Icon: "mdi:battery", StateClass: StateClassMeasurement, Diagnostic: true},
	{FieldID: "std.battery_voltage.value", Name: "Vehicle Battery Voltage", Unit: "V", DeviceClass: DeviceClassVoltage, Icon: "mdi:car-battery", StateClass: StateClassMeasurement},
	{FieldID: "std.fuel_rate_gps.value", Name: "Fuel Rate (GPS)", Unit: "L/h", Icon: "mdi:fuel", StateClass: StateClassMeasurement},
	{FieldID: "std.fuel_used_gps.value", Name: "Fuel Used (GPS)", Unit: "L", DeviceClass: DeviceClassVolume, Icon: "mdi:fuel", StateClass: StateClassTotalIncreasing, AutoZero: true},
	{FieldID: "std.gsm_signal.value", Name: "Cellular Signal Strength", Icon: "mdi:signal", StateClass: StateClassMeasurement, Diagnostic: true},
	{FieldID: "std.ignition.value", Name: "Ignition State", Icon: "mdi:key"},
	{FieldID: "std.speed.value", Name: "Tracker Speed (GPS)", Unit: "km/h", DeviceClass: DeviceClassSpeed, Icon: "mdi:speedometer", StateClass: StateClassMeasurement},
	{FieldID: "std.total_odometer.value", Name: "Odometer", Unit: "m", DeviceClass: DeviceClassDistance, Icon: "mdi:counter", StateClass: StateClassTotalIncreasing},
	{FieldID: "std.trip_odometer.value", Name: "Trip Odometer", Unit: "km", DeviceClass: DeviceClassDistance, Icon: "mdi:map-marker-distance", StateClass: StateClassTotalIncreasing},
}

var sensorsByFieldID = func() map[string]*SensorDefinition {
	m := make(map[string]*SensorDefinition, len(sensorCatalog))
	for i := range sensorCatalog {
		m[sensorCatalog[i].FieldID] = &sensorCatalog[i]
	}
	return m
}()

// FindSensor looks a data field up by its full id, eg. "obd.speed.value".
// Returns nil for fields outside the catalog.
func FindSensor(fieldID string) *SensorDefinition {
	return sensorsByFieldID[fieldID]
}

// IsAutoZeroField reports whether stale readings of this field render as zero.
func IsAutoZeroField(fieldID string) bool {
	s := sensorsByFieldID[fieldID]
	return s != nil && s.AutoZero
}

// AllSensors returns the full catalog in stable order.
func AllSensors() []SensorDefinition {
	out := make([]SensorDefinition, len(sensorCatalog))
	copy(out, sensorCatalog)
	return out
}

// AutoZeroFieldIDs returns the ids of the fields the engine evaluates.
func AutoZeroFieldIDs() []string {
	var ids []string
	for _, s := range sensorCatalog {
		if s.AutoZero {
			ids = append(ids, s.FieldID)
		}
	}
	return ids
}
