package core

import (
	"errors"
)

var (
	ErrDeviceInitFailed        = errors.New("adapter, device or queue creation failed")
	ErrSwapchainCreationFailed = errors.New("swapchain creation failed")
	ErrShaderBlobMissing       = errors.New("compiled shader blob missing or empty")

	ErrOutOfArena         = errors.New("arena exhausted")
	ErrPoolExhausted      = errors.New("pool exhausted")
	ErrNoScratchAvailable = errors.New("all scratch arenas conflict")
	ErrInvalidHandle      = errors.New("handle generation mismatch")
)
