// Package mocks provides testify mocks of the module interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/robbyt/go-counterview/module"
)

// Initializer is a mock implementation of module.Initializer.
type Initializer struct {
	mock.Mock
}

// Initialize returns the values set up with On("Initialize").
func (m *Initializer) Initialize(ctx context.Context) (module.Instance, error) {
	args := m.Called(ctx)
	inst, _ := args.Get(0).(module.Instance)
	return inst, args.Error(1)
}

// Instance is a mock implementation of module.Instance.
type Instance struct {
	mock.Mock
}

// Compute returns the values set up with On("Compute").
func (m *Instance) Compute(ctx context.Context, a, b float64) (float64, error) {
	args := m.Called(ctx, a, b)
	return args.Get(0).(float64), args.Error(1)
}

// EntryPoint returns the value set up with On("EntryPoint").
func (m *Instance) EntryPoint() string {
	return m.Called().String(0)
}

// Close returns the value set up with On("Close").
func (m *Instance) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
