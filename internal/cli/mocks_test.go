package cli

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"mixtape/internal/config"
	"mixtape/internal/logging"
	"mixtape/internal/pipeline"
)

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)

	mu        sync.Mutex
	loadCalls int
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{}, nil
}

func (m *mockConfigLoader) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// ---------------------------------------------------------------------------
// Mock EngineFactory
// ---------------------------------------------------------------------------

type mockEngineFactory struct {
	EnginesFunc func(cfg config.Config, withPlayer bool) (pipeline.Engines, error)
	engines     pipeline.Engines

	mu           sync.Mutex
	enginesCalls []engineFactoryCall
}

type engineFactoryCall struct {
	Cfg        config.Config
	WithPlayer bool
}

func (m *mockEngineFactory) Engines(cfg config.Config, withPlayer bool) (pipeline.Engines, error) {
	m.mu.Lock()
	m.enginesCalls = append(m.enginesCalls, engineFactoryCall{Cfg: cfg, WithPlayer: withPlayer})
	m.mu.Unlock()

	if m.EnginesFunc != nil {
		return m.EnginesFunc(cfg, withPlayer)
	}
	return m.engines, nil
}

func (m *mockEngineFactory) EnginesCalls() []engineFactoryCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]engineFactoryCall, len(m.enginesCalls))
	copy(result, m.enginesCalls)
	return result
}

// ---------------------------------------------------------------------------
// Mock LoggerFactory
// ---------------------------------------------------------------------------

type mockLoggerFactory struct {
	NewLoggerFunc func(verbose bool) (*zap.SugaredLogger, error)

	mu             sync.Mutex
	newLoggerCalls []bool // verbose values passed
}

func (m *mockLoggerFactory) NewLogger(verbose bool) (*zap.SugaredLogger, error) {
	m.mu.Lock()
	m.newLoggerCalls = append(m.newLoggerCalls, verbose)
	m.mu.Unlock()

	if m.NewLoggerFunc != nil {
		return m.NewLoggerFunc(verbose)
	}
	return logging.Nop(), nil
}

func (m *mockLoggerFactory) NewLoggerCalls() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.newLoggerCalls...)
}

// ---------------------------------------------------------------------------
// Mock ToolVerifier
// ---------------------------------------------------------------------------

type mockToolVerifier struct {
	VerifyFunc func(ctx context.Context, path string) error

	mu          sync.Mutex
	verifyCalls []string // paths passed
}

func (m *mockToolVerifier) Verify(ctx context.Context, path string) error {
	m.mu.Lock()
	m.verifyCalls = append(m.verifyCalls, path)
	m.mu.Unlock()

	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, path)
	}
	return nil
}

func (m *mockToolVerifier) VerifyCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.verifyCalls...)
}

// ---------------------------------------------------------------------------
// Mock Prompter
// ---------------------------------------------------------------------------

type mockPrompter struct {
	InputFunc   func(message, defaultValue string) (string, error)
	ConfirmFunc func(message string, defaultValue bool) (bool, error)

	mu           sync.Mutex
	inputCalls   []inputCall
	confirmCalls []confirmCall
}

type inputCall struct {
	Message string
	Default string
}

type confirmCall struct {
	Message string
	Default bool
}

// Input accepts the suggested default unless InputFunc overrides it.
func (m *mockPrompter) Input(message, defaultValue string) (string, error) {
	m.mu.Lock()
	m.inputCalls = append(m.inputCalls, inputCall{Message: message, Default: defaultValue})
	m.mu.Unlock()

	if m.InputFunc != nil {
		return m.InputFunc(message, defaultValue)
	}
	return defaultValue, nil
}

func (m *mockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	m.mu.Lock()
	m.confirmCalls = append(m.confirmCalls, confirmCall{Message: message, Default: defaultValue})
	m.mu.Unlock()

	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(message, defaultValue)
	}
	return defaultValue, nil
}

func (m *mockPrompter) InputCalls() []inputCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]inputCall, len(m.inputCalls))
	copy(result, m.inputCalls)
	return result
}

func (m *mockPrompter) ConfirmCalls() []confirmCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]confirmCall, len(m.confirmCalls))
	copy(result, m.confirmCalls)
	return result
}

// ---------------------------------------------------------------------------
// Compile-time interface verification
// ---------------------------------------------------------------------------

var (
	_ ConfigLoader  = (*mockConfigLoader)(nil)
	_ EngineFactory = (*mockEngineFactory)(nil)
	_ LoggerFactory = (*mockLoggerFactory)(nil)
	_ ToolVerifier  = (*mockToolVerifier)(nil)
	_ Prompter      = (*mockPrompter)(nil)
)
