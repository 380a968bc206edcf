package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type GenerativeClientMock struct {
	mock.Mock
}

func (m *GenerativeClientMock) Generate(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	args := m.Called(ctx, prompt, maxTokens, temperature)
	return args.String(0), args.Error(1)
}

func (m *GenerativeClientMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
