package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// YAML file layout
type yamlConfig struct {
	Devices     []DeviceYAML     `yaml:"devices"`
	Storage     StorageYAML      `yaml:"storage,omitempty"`
	Controllers []ControllerYAML `yaml:"controllers,omitempty"`
}

type DeviceYAML struct {
	Name         string `yaml:"name"`
	Type         string `yaml:"type,omitempty"`
	Hostname     string `yaml:"hostname,omitempty"`
	Port         int    `yaml:"port,omitempty"`
	SerialDevice string `yaml:"serialdevice,omitempty"`
	Baud         int    `yaml:"baud,omitempty"`
	Timeout      string `yaml:"timeout,omitempty"`
	LoopPackets  int    `yaml:"loop-packets,omitempty"`
}

type StorageYAML struct {
	SQLite      *SQLiteYAML      `yaml:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBYAML `yaml:"timescaledb,omitempty"`
}

type SQLiteYAML struct {
	Path string `yaml:"path"`
}

type TimescaleDBYAML struct {
	ConnectionString string `yaml:"connection-string"`
}

type ControllerYAML struct {
	Type       string          `yaml:"type,omitempty"`
	RESTServer *RESTServerYAML `yaml:"rest,omitempty"`
}

type RESTServerYAML struct {
	ListenAddr string `yaml:"listen-addr,omitempty"`
	Port       int    `yaml:"port,omitempty"`
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	if y.config != nil {
		return y.config, nil
	}

	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseYAML(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", y.filename, err)
	}

	y.config = config
	return config, nil
}

// ParseYAML converts a YAML document to ConfigData, filling in defaults and
// validating the result.
func ParseYAML(data []byte) (*ConfigData, error) {
	var raw yamlConfig
	if err := yaml.UnmarshalStrict(data, &raw); err != nil {
		return nil, err
	}

	config := &ConfigData{
		Devices:     make([]DeviceData, len(raw.Devices)),
		Controllers: make([]ControllerData, len(raw.Controllers)),
	}

	for i, device := range raw.Devices {
		d := DeviceData{
			Name:         device.Name,
			Type:         device.Type,
			Hostname:     device.Hostname,
			Port:         device.Port,
			SerialDevice: device.SerialDevice,
			Baud:         device.Baud,
			LoopPackets:  device.LoopPackets,
		}
		if device.Timeout != "" {
			timeout, err := time.ParseDuration(device.Timeout)
			if err != nil {
				return nil, fmt.Errorf("device %q: invalid timeout: %w", device.Name, err)
			}
			d.Timeout = timeout
		}
		config.Devices[i] = d
	}

	if raw.Storage.SQLite != nil {
		config.Storage.SQLite = &SQLiteData{Path: raw.Storage.SQLite.Path}
	}
	if raw.Storage.TimescaleDB != nil {
		config.Storage.TimescaleDB = &TimescaleDBData{
			ConnectionString: raw.Storage.TimescaleDB.ConnectionString,
		}
	}

	for i, controller := range raw.Controllers {
		config.Controllers[i] = ControllerData{Type: controller.Type}
		if controller.RESTServer != nil {
			config.Controllers[i].RESTServer = &RESTServerData{
				ListenAddr: controller.RESTServer.ListenAddr,
				Port:       controller.RESTServer.Port,
			}
		}
	}

	applyDefaults(config)
	if err := Validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

func applyDefaults(c *ConfigData) {
	for i := range c.Devices {
		d := &c.Devices[i]
		if d.Type == "" {
			d.Type = DeviceTypeDavis
		}
		if d.Hostname != "" && d.Port == 0 {
			d.Port = DefaultPort
		}
		if d.SerialDevice != "" && d.Baud == 0 {
			d.Baud = DefaultBaud
		}
		if d.LoopPackets == 0 {
			d.LoopPackets = DefaultLoopPackets
		}
		if d.Timeout == 0 {
			d.Timeout = DefaultTimeout
		}
	}

	for i := range c.Controllers {
		rest := c.Controllers[i].RESTServer
		if c.Controllers[i].Type == "rest" && rest == nil {
			rest = &RESTServerData{}
			c.Controllers[i].RESTServer = rest
		}
		if rest != nil && rest.Port == 0 {
			rest.Port = DefaultHTTPPort
		}
	}
}

// Validate checks a configuration for mistakes that would only surface once
// stations start.
func Validate(c *ConfigData) error {
	names := make(map[string]bool, len(c.Devices))
	for _, d := range c.Devices {
		if d.Name == "" {
			return fmt.Errorf("every device needs a name")
		}
		if names[d.Name] {
			return fmt.Errorf("device name %q is used more than once", d.Name)
		}
		names[d.Name] = true

		if d.Type != DeviceTypeDavis {
			return fmt.Errorf("device %q: unsupported type %q", d.Name, d.Type)
		}
		if d.SerialDevice == "" && d.Hostname == "" {
			return fmt.Errorf("davis station [%s] must define either a serial device or hostname", d.Name)
		}
		if d.LoopPackets < 1 || d.LoopPackets > 2048 {
			return fmt.Errorf("device %q: loop-packets must be between 1 and 2048", d.Name)
		}
	}

	if s := c.Storage.SQLite; s != nil && s.Path == "" {
		return fmt.Errorf("storage.sqlite.path is required")
	}
	if s := c.Storage.TimescaleDB; s != nil && s.ConnectionString == "" {
		return fmt.Errorf("storage.timescaledb.connection-string is required")
	}

	for _, con := range c.Controllers {
		if con.Type != "rest" {
			return fmt.Errorf("unsupported controller type %q", con.Type)
		}
	}
	return nil
}

// GetDevices returns all device configurations
func (y *YAMLProvider) GetDevices() ([]DeviceData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return config.Devices, nil
}

// GetStorageConfig returns storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &config.Storage, nil
}

// GetControllers returns all controller configurations
func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return config.Controllers, nil
}

// IsReadOnly returns true since YAML files are read-only in this implementation
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
