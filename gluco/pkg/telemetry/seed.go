package telemetry

import (
	"securegluco/gluco/defs"
	"time"
)

// PumpStatus is the simulated pump the dashboard starts with.
func PumpStatus(now time.Time) defs.PumpStatus {
	return defs.PumpStatus{
		BatteryLevel:     78,
		ActiveInsulin:    2.4,
		ReservoirLevel:   156,
		ConnectionStatus: defs.Connected,
		LastSync:         now.Add(-5 * time.Minute),
		Delivering:       true,
	}
}

// Threats are the historical threats shown before the feed reports anything.
func Threats(now time.Time) []defs.SecurityThreat {
	return []defs.SecurityThreat{
		{
			ID:          "1",
			Type:        defs.ReplayAttack,
			Severity:    defs.Critical,
			Time:        now.Add(-10 * time.Minute),
			Description: "Malicious packet detected: Insulin delivery command blocked",
			Status:      defs.ThreatBlocked,
			Source:      "192.168.1.105",
		},
		{
			ID:          "2",
			Type:        defs.BluetoothSpoofing,
			Severity:    defs.Warning,
			Time:        now.Add(-45 * time.Minute),
			Description: "Unusual Bluetooth activity from unknown device",
			Status:      defs.ThreatResolved,
			Source:      "Unknown MAC: AA:BB:CC:DD:EE:FF",
		},
		{
			ID:          "3",
			Type:        defs.UnauthorizedBolus,
			Severity:    defs.Critical,
			Time:        now.Add(-2 * time.Hour),
			Description: "Unauthorized bolus command attempt blocked",
			Status:      defs.ThreatBlocked,
		},
	}
}
