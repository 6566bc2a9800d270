package testbed

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/vetro/engine/core"
)

type Config struct {
	Name        string `toml:"name"`
	StartPosX   uint32 `toml:"start_pos_x"`
	StartPosY   uint32 `toml:"start_pos_y"`
	StartWidth  uint32 `toml:"start_width"`
	StartHeight uint32 `toml:"start_height"`
	ShaderDir   string `toml:"shader_dir"`
	GridSize    int    `toml:"grid_size"`
	LogLevel    string `toml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		Name:        "Vetro Testbed",
		StartPosX:   100,
		StartPosY:   100,
		StartWidth:  800,
		StartHeight: 600,
		ShaderDir:   "shaders",
		GridSize:    5,
		LogLevel:    "debug",
	}
}

// LoadConfig reads the testbed configuration, falling back to defaults when
// the file is absent.
func LoadConfig(path string) Config {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		core.LogInfo("no config at %s, using defaults", path)
		return config
	}
	if err := toml.Unmarshal(data, &config); err != nil {
		core.LogWarn("failed to parse %s: %s; using defaults", path, err)
		return DefaultConfig()
	}
	return config
}
