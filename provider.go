package drivershim

import "sync"

// ShimProvider is the plugin-level entry point the host drives. Its only job
// beyond lifecycle plumbing is to install the registration hook on first Init
// and to route the host's settings-changed events into shim reconfiguration.
type ShimProvider struct {
	manager *ShimManager
	logger  Logger

	mu     sync.Mutex
	host   *DriverHost
	loaded bool
}

// NewShimProvider creates a provider around the given manager.
func NewShimProvider(manager *ShimManager, logger Logger) *ShimProvider {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &ShimProvider{manager: manager, logger: logger}
}

// Manager exposes the provider's shim manager.
func (p *ShimProvider) Manager() *ShimManager { return p.manager }

// Init installs the device-added hook, once, on first plugin initialization.
func (p *ShimProvider) Init(host *DriverHost) InitError {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.loaded {
		p.logger.Info("installing device registration hook")
		if err := p.manager.InstallHook(host); err != nil {
			p.logger.Error("hook install failed", "error", err)
			return InitErrorHmdNotFound
		}
		p.host = host
		p.loaded = true
	}

	return InitErrorNone
}

// Cleanup drops the host reference. The hook stays installed for the process
// lifetime; its captured original keeps forwarding.
func (p *ShimProvider) Cleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.host = nil
}

// InterfaceVersions reports the boundary contracts this plugin implements.
func (p *ShimProvider) InterfaceVersions() []string {
	return InterfaceVersions
}

// RunFrame drains the host event queue, forwarding settings-changed
// notifications to every live shim. Called by the host once per frame.
func (p *ShimProvider) RunFrame() {
	p.mu.Lock()
	host := p.host
	p.mu.Unlock()
	if host == nil {
		return
	}

	for {
		ev, ok := host.PollNextEvent()
		if !ok {
			return
		}
		switch ev.Type {
		case EventSettingsChanged:
			p.manager.ApplySettingsChanges()
		}
	}
}

func (p *ShimProvider) ShouldBlockStandbyMode() bool { return false }

func (p *ShimProvider) EnterStandby() {}

func (p *ShimProvider) LeaveStandby() {}

var (
	factoryOnce sync.Once
	factoryProv *ShimProvider
)

// DriverFactory is the plugin's single exported entry point: the host asks it
// for the provider singleton by interface name. Unknown names report
// interface-not-found.
func DriverFactory(interfaceName string) (any, InitError) {
	if interfaceName != DeviceProviderVersion {
		return nil, InitErrorInterfaceNotFound
	}
	factoryOnce.Do(func() {
		logger := NewStdLogger()
		factoryProv = NewShimProvider(NewShimManager(AllowAllCallers, nil, logger), logger)
	})
	return factoryProv, InitErrorNone
}
