package sampler

import (
	"context"
	"math"
	"strings"

	"github.com/shirou/gopsutil/v4/sensors"
)

// SensorReader returns every temperature sensor on the host.
type SensorReader func(ctx context.Context) ([]sensors.TemperatureStat, error)

func defaultSensorReader(ctx context.Context) ([]sensors.TemperatureStat, error) {
	return sensors.TemperaturesWithContext(ctx)
}

// pickCPUTemperature prefers the coretemp package sensor and otherwise takes
// the first plausible reading (strictly between 0 and 100 °C). NaN and
// infinite readings are never reported.
func pickCPUTemperature(stats []sensors.TemperatureStat) *float64 {
	for _, stat := range stats {
		if isCPUPackageSensor(stat.SensorKey) && isFinite(stat.Temperature) {
			v := stat.Temperature
			return &v
		}
	}
	for _, stat := range stats {
		if stat.Temperature > 0 && stat.Temperature < 100 {
			v := stat.Temperature
			return &v
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// isCPUPackageSensor matches "coretemp_package_id_0" and the other
// spellings of coretemp's "Package id 0" label.
func isCPUPackageSensor(key string) bool {
	normalized := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(key))
	return strings.HasPrefix(normalized, "coretemp") && strings.HasSuffix(normalized, "packageid0")
}
