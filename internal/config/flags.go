package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagWidth   = flag.Int("width", 0, "Window width")
	flagHeight  = flag.Int("height", 0, "Window height")
	flagBackend = flag.String("backend", "", "Event backend: glfw or sdl")
	flagMeshDir = flag.String("mesh-dir", "", "Directory holding the .obj and .mtl files")
	flagMesh    = flag.String("mesh", "", "Name of the .obj file inside -mesh-dir")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagBackend != "" {
		cfg.Window.Backend = *flagBackend
	}
	if *flagMeshDir != "" {
		cfg.Assets.MeshDir = *flagMeshDir
	}
	if *flagMesh != "" {
		cfg.Assets.MeshFile = *flagMesh
	}
}
