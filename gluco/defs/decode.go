package defs

import "fmt"

// The enums decode from the same strings they encode to, so clients of the
// dashboard can read its JSON back into these types.

func lookup(s, kind string, n int, name func(int) string) (int, error) {
	for i := 0; i < n; i++ {
		if name(i) == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}

func (t *Trend) UnmarshalText(b []byte) error {
	i, err := lookup(string(b), "trend", int(Falling)+1, func(i int) string { return Trend(i).String() })
	*t = Trend(i)
	return err
}

func (at *AlertType) UnmarshalText(b []byte) error {
	i, err := lookup(string(b), "alert type", int(HighGlucoseAlert)+1, func(i int) string { return AlertType(i).String() })
	*at = AlertType(i)
	return err
}

func (s *Severity) UnmarshalText(b []byte) error {
	i, err := lookup(string(b), "severity", int(Critical)+1, func(i int) string { return Severity(i).String() })
	*s = Severity(i)
	return err
}

func (cs *ConnectionStatus) UnmarshalText(b []byte) error {
	i, err := lookup(string(b), "connection status", int(Disconnected)+1, func(i int) string { return ConnectionStatus(i).String() })
	*cs = ConnectionStatus(i)
	return err
}

func (tt *ThreatType) UnmarshalText(b []byte) error {
	i, err := lookup(string(b), "threat type", int(PortScan)+1, func(i int) string { return ThreatType(i).String() })
	*tt = ThreatType(i)
	return err
}

func (ts *ThreatStatus) UnmarshalText(b []byte) error {
	i, err := lookup(string(b), "threat status", int(ThreatResolved)+1, func(i int) string { return ThreatStatus(i).String() })
	*ts = ThreatStatus(i)
	return err
}
