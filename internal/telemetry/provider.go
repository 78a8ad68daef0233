package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Provider produces the current value for one tracked metric on demand.
//
// Implementations should be cheap enough to call on every publish; anything
// expensive belongs behind the implementation's own cache.
type Provider interface {
	// Metric returns the field name the value is published under (e.g. "cpuTemp").
	Metric() string

	// Sample reads the current value.
	Sample() (float64, error)
}

// preferredZoneTypes lists thermal zone types that report the CPU package
// temperature, in preference order. SoCs (Raspberry Pi) expose cpu-thermal;
// x86 exposes x86_pkg_temp.
var preferredZoneTypes = []string{"x86_pkg_temp", "cpu-thermal", "cpu_thermal"}

// CPUTemperature reads the CPU temperature from the Linux sysfs thermal
// class. Zone discovery happens on first use and the chosen zone is reused
// for the process lifetime.
type CPUTemperature struct {
	basePath string
	tempFile string
}

// NewCPUTemperature creates a provider reading from /sys/class/thermal.
func NewCPUTemperature() *CPUTemperature {
	return &CPUTemperature{basePath: "/sys/class/thermal"}
}

// NewCPUTemperatureAt creates a provider reading from an alternate sysfs
// root. Used by tests to point at a synthetic thermal tree.
func NewCPUTemperatureAt(basePath string) *CPUTemperature {
	return &CPUTemperature{basePath: basePath}
}

// Metric implements Provider.
func (p *CPUTemperature) Metric() string {
	return "cpuTemp"
}

// Sample implements Provider. It returns the CPU temperature in degrees
// Celsius, converted from the millidegree values sysfs exposes.
func (p *CPUTemperature) Sample() (float64, error) {
	if p.tempFile == "" {
		tempFile, err := p.findZone()
		if err != nil {
			return 0, err
		}
		p.tempFile = tempFile
	}

	data, err := os.ReadFile(p.tempFile)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", p.tempFile, err)
	}

	milli, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing temperature from %s: %w", p.tempFile, err)
	}

	return milli / 1000.0, nil
}

// findZone locates the thermal zone to read, preferring zones whose type
// names the CPU and falling back to the first zone present.
func (p *CPUTemperature) findZone() (string, error) {
	zones, err := filepath.Glob(filepath.Join(p.basePath, "thermal_zone*"))
	if err != nil || len(zones) == 0 {
		return "", fmt.Errorf("no thermal zones under %s", p.basePath)
	}

	zoneTypes := make(map[string]string, len(zones))
	for _, zone := range zones {
		data, err := os.ReadFile(filepath.Join(zone, "type"))
		if err != nil {
			continue
		}
		zoneTypes[strings.TrimSpace(string(data))] = zone
	}

	for _, want := range preferredZoneTypes {
		if zone, ok := zoneTypes[want]; ok {
			return filepath.Join(zone, "temp"), nil
		}
	}

	return filepath.Join(zones[0], "temp"), nil
}
