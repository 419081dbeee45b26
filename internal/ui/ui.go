// Package ui implements the interactive device picker using bubbletea's Elm architecture.
//
// The picker shows the playback devices currently available to the
// controlled account as a filterable list. Selecting a device resolves
// the sync loop's device hint before the loop starts; the loop itself
// never renders UI.
package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/h2see/eavesdrop/internal/models"
)

var _ list.Item = deviceItem{}

// deviceItem wraps [models.Device] to implement [list.Item].
type deviceItem struct {
	device models.Device
}

func (i deviceItem) FilterValue() string { return i.device.Name }
func (i deviceItem) Title() string       { return i.device.Name }
func (i deviceItem) Description() string {
	desc := i.device.Type
	if i.device.Active {
		desc = fmt.Sprintf("%s • active", desc)
	}
	return desc
}

// Model represents the device picker state.
type Model struct {
	deviceList list.Model
	choice     *models.Device
	quit       bool
	width      int
	height     int
}

// NewModel creates a picker over the given devices.
func NewModel(devices []models.Device) *Model {
	items := make([]list.Item, len(devices))
	for i, d := range devices {
		items[i] = deviceItem{device: d}
	}

	dl := list.New(items, list.NewDefaultDelegate(), 0, 0)
	dl.Title = "Select a playback device"

	return &Model{deviceList: dl}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the picker state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.deviceList.SetSize(msg.Width-4, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quit = true
			return m, tea.Quit
		case "enter":
			if selected := m.deviceList.SelectedItem(); selected != nil {
				if di, ok := selected.(deviceItem); ok {
					m.choice = &di.device
				}
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.deviceList, cmd = m.deviceList.Update(msg)
	return m, cmd
}

// View renders the device list.
func (m *Model) View() string {
	if m.choice != nil || m.quit {
		return ""
	}
	return styles.title.Render("eavesdrop") + "\n" + m.deviceList.View()
}

// Choice returns the selected device, or nil when the picker was dismissed.
func (m *Model) Choice() *models.Device {
	return m.choice
}

// PickDevice runs the picker and returns the chosen device.
func PickDevice(devices []models.Device) (*models.Device, error) {
	model := NewModel(devices)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("error running device picker: %w", err)
	}

	if model.Choice() == nil {
		return nil, fmt.Errorf("no device selected")
	}

	return model.Choice(), nil
}
