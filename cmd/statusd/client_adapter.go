package main

import (
	"context"

	statusclient "statusd/internal/client"
	"statusd/internal/types"
)

type clientFactory func() (commandClient, error)

type commandClient interface {
	BaseURL() string
	EnsureDaemon(ctx context.Context) error
	EnsureDaemonVersion(ctx context.Context, expectedVersion string, restart bool) error
	Health(ctx context.Context) (*types.HealthResponse, error)
	Status(ctx context.Context) (*types.StatusSnapshot, error)
	Command(ctx context.Context, command string) (*types.CommandResponse, error)
	ShutdownDaemon(ctx context.Context) error
	Watch(ctx context.Context) (<-chan types.StatusUpdate, func(), error)
	EventStream(ctx context.Context) (<-chan types.StatusUpdate, func(), error)
}

func newStatusClient() (commandClient, error) {
	client, err := statusclient.New()
	if err != nil {
		return nil, err
	}
	return client, nil
}
