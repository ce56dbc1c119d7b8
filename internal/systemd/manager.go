package systemd

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-systemd/v22/dbus"
)

// Manager handles systemd service lifecycle operations via D-Bus.
type Manager struct {
	conn *dbus.Conn
}

// NewManager connects to the system bus, or the user bus when system is false.
func NewManager(ctx context.Context, system bool) (*Manager, error) {
	var (
		conn *dbus.Conn
		err  error
	)
	if system {
		conn, err = dbus.NewSystemConnectionContext(ctx)
	} else {
		conn, err = dbus.NewUserConnectionContext(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to systemd: %w", err)
	}
	return &Manager{conn: conn}, nil
}

// Reload is systemctl daemon-reload.
func (m *Manager) Reload(ctx context.Context) error {
	return m.conn.ReloadContext(ctx)
}

// EnableUnit links the unit file at path into its install targets.
func (m *Manager) EnableUnit(ctx context.Context, path string) error {
	_, _, err := m.conn.EnableUnitFilesContext(ctx, []string{path}, false, true)
	return err
}

// DisableUnit removes the install symlinks of a unit.
func (m *Manager) DisableUnit(ctx context.Context, name string) error {
	_, err := m.conn.DisableUnitFilesContext(ctx, []string{name}, false)
	return err
}

// GetServiceStatus retrieves the ActiveState property of a systemd service.
func (m *Manager) GetServiceStatus(ctx context.Context, serviceName string) (string, error) {
	return m.stringProperty(ctx, serviceName, "ActiveState")
}

// UnitFileState reports enabled, disabled, static, etc.
func (m *Manager) UnitFileState(ctx context.Context, serviceName string) (string, error) {
	return m.stringProperty(ctx, serviceName, "UnitFileState")
}

func (m *Manager) stringProperty(ctx context.Context, unitName, name string) (string, error) {
	prop, err := m.conn.GetUnitPropertyContext(ctx, unitName, name)
	if err != nil {
		return "", err
	}
	if s, ok := prop.Value.Value().(string); ok {
		return s, nil
	}
	return strings.Trim(prop.Value.String(), `"`), nil
}

// RestartService restarts a systemd service using the replace mode.
func (m *Manager) RestartService(ctx context.Context, serviceName string) error {
	_, err := m.conn.RestartUnitContext(ctx, serviceName, "replace", nil)
	return err
}

// StopService stops a systemd service using the replace mode.
func (m *Manager) StopService(ctx context.Context, serviceName string) error {
	_, err := m.conn.StopUnitContext(ctx, serviceName, "replace", nil)
	return err
}

// StartService starts a systemd service using the replace mode.
func (m *Manager) StartService(ctx context.Context, serviceName string) error {
	_, err := m.conn.StartUnitContext(ctx, serviceName, "replace", nil)
	return err
}

// Reboot queues reboot.target. The call returns before the machine goes down.
func (m *Manager) Reboot(ctx context.Context) error {
	_, err := m.conn.StartUnitContext(ctx, "reboot.target", "replace-irreversibly", nil)
	return err
}

// Close cleanly closes the D-Bus connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}
