package config

import "time"

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetDevices() ([]DeviceData, error)
	GetStorageConfig() (*StorageData, error)
	GetControllers() ([]ControllerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Devices     []DeviceData     `json:"devices"`
	Storage     StorageData      `json:"storage,omitempty"`
	Controllers []ControllerData `json:"controllers,omitempty"`
}

// Device types
const (
	DeviceTypeDavis = "davis"
)

// Defaults applied to devices and controllers that leave them unset.
const (
	DefaultPort        = 22222
	DefaultBaud        = 19200
	DefaultLoopPackets = 20
	DefaultTimeout     = 30 * time.Second
	DefaultHTTPPort    = 8080
)

// DeviceData holds configuration specific to data collection devices
type DeviceData struct {
	Name         string        `json:"name"`
	Type         string        `json:"type,omitempty"`
	Hostname     string        `json:"hostname,omitempty"`
	Port         int           `json:"port,omitempty"`
	SerialDevice string        `json:"serial_device,omitempty"`
	Baud         int           `json:"baud,omitempty"`
	Timeout      time.Duration `json:"timeout,omitempty"`
	// LoopPackets is how many LOOP2 packets to request per LPS command.
	LoopPackets int `json:"loop_packets,omitempty"`
}

// StorageData holds the configuration for the storage backends. More than
// one may be enabled at a time.
type StorageData struct {
	SQLite      *SQLiteData      `json:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
}

type SQLiteData struct {
	Path string `json:"path"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string"`
}

// ControllerData holds the configuration for various controller backends
type ControllerData struct {
	Type       string          `json:"type,omitempty"`
	RESTServer *RESTServerData `json:"rest,omitempty"`
}

type RESTServerData struct {
	ListenAddr string `json:"listen_addr,omitempty"`
	Port       int    `json:"port,omitempty"`
}
