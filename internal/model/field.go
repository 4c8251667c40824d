package model

// Field names a numeric column of the unified record set.
type Field string

const (
	FieldDCPower            Field = "dc_power"
	FieldACPower            Field = "ac_power"
	FieldDailyYield         Field = "daily_yield_raw"
	FieldTotalYield         Field = "total_yield_raw"
	FieldAmbientTemperature Field = "ambient_temperature"
	FieldModuleTemperature  Field = "module_temperature"
	FieldIrradiance         Field = "irradiance"
	FieldEfficiency         Field = "efficiency"
)

// FieldInfo holds display name and unit for a field.
type FieldInfo struct {
	Name string
	Unit string
}

// FieldCatalog maps every numeric field to its display name and unit. The
// yield counters are vendor-reported and their unit relative to the power
// fields is unknown.
var FieldCatalog = map[Field]FieldInfo{
	FieldDCPower:            {Name: "DC Power", Unit: "kW"},
	FieldACPower:            {Name: "AC Power", Unit: "kW"},
	FieldDailyYield:         {Name: "Daily Yield", Unit: "?"},
	FieldTotalYield:         {Name: "Total Yield", Unit: "?"},
	FieldAmbientTemperature: {Name: "Ambient Temperature", Unit: "°C"},
	FieldModuleTemperature:  {Name: "Module Temperature", Unit: "°C"},
	FieldIrradiance:         {Name: "Irradiance", Unit: "kW/m²"},
	FieldEfficiency:         {Name: "Inverter Efficiency", Unit: "%"},
}
