// Package sampler reads the host status: which game or emulator is running
// and the CPU package temperature. Every failure degrades to an idle label
// or a missing temperature; Sample never returns an error.
package sampler

import (
	"context"

	"statusd/internal/logging"
	"statusd/internal/types"
)

type Option func(*Sampler)

func WithLogger(logger logging.Logger) Option {
	return func(s *Sampler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithSteamClient(client *SteamClient) Option {
	return func(s *Sampler) {
		s.steam = client
	}
}

func WithProcessTable(table ProcessTable) Option {
	return func(s *Sampler) {
		if table != nil {
			s.processes = table
		}
	}
}

func WithSensorReader(read SensorReader) Option {
	return func(s *Sampler) {
		if read != nil {
			s.sensors = read
		}
	}
}

type Sampler struct {
	steam     *SteamClient
	processes ProcessTable
	sensors   SensorReader
	logger    logging.Logger
}

func New(opts ...Option) *Sampler {
	s := &Sampler{
		steam:     NewSteamClient(),
		processes: NewProcessTable(),
		sensors:   defaultSensorReader,
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Sampler) Sample(ctx context.Context) types.StatusSample {
	return types.StatusSample{
		Label:       s.Game(ctx),
		Temperature: s.CPUTemperature(ctx),
	}
}

// Game returns the Steam store name of the running game when the local
// Steam API reports one, otherwise a process-table guess, otherwise idle.
func (s *Sampler) Game(ctx context.Context) string {
	if s.steam != nil {
		id, err := s.steam.RunningAppID(ctx)
		if err != nil {
			s.logger.Debug("steam_status_unavailable", logging.F("error", err))
		} else if id != "" {
			return s.steam.AppName(ctx, id)
		}
	}
	if s.processes != nil {
		label, err := detectFromProcesses(ctx, s.processes)
		if err != nil {
			s.logger.Debug("process_scan_failed", logging.F("error", err))
		} else if label != "" {
			return label
		}
	}
	return types.IdleLabel
}

// CPUTemperature returns the CPU package temperature in °C, or nil when no
// usable sensor exists.
func (s *Sampler) CPUTemperature(ctx context.Context) *float64 {
	if s.sensors == nil {
		return nil
	}
	stats, err := s.sensors(ctx)
	if err != nil && len(stats) == 0 {
		s.logger.Debug("sensor_read_failed", logging.F("error", err))
		return nil
	}
	return pickCPUTemperature(stats)
}
