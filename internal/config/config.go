// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window" toml:"window"`
	Layout  LayoutConfig  `yaml:"layout" toml:"layout"`
	Assets  AssetsConfig  `yaml:"assets" toml:"assets"`
	Camera  CameraConfig  `yaml:"camera" toml:"camera"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title   string `yaml:"title" toml:"title"`
	Width   int    `yaml:"width" toml:"width"`
	Height  int    `yaml:"height" toml:"height"`
	VSync   bool   `yaml:"vsync" toml:"vsync"`
	Backend string `yaml:"backend" toml:"backend"` // "glfw" or "sdl"
}

// LayoutConfig describes the split of the main window into sub-viewports.
// A zero size disables that split.
type LayoutConfig struct {
	ToolbarHeight int `yaml:"toolbar_height" toml:"toolbar_height"`
	SidebarWidth  int `yaml:"sidebar_width" toml:"sidebar_width"`
}

// AssetsConfig holds asset file locations.
type AssetsConfig struct {
	MeshDir        string `yaml:"mesh_dir" toml:"mesh_dir"`
	MeshFile       string `yaml:"mesh_file" toml:"mesh_file"`
	VertexShader   string `yaml:"vertex_shader" toml:"vertex_shader"`
	FragmentShader string `yaml:"fragment_shader" toml:"fragment_shader"`
	ScreenshotDir  string `yaml:"screenshot_dir" toml:"screenshot_dir"`
}

// CameraConfig holds projection settings shared by every viewport camera.
type CameraConfig struct {
	FOVDegrees float32 `yaml:"fov_degrees" toml:"fov_degrees"`
	Near       float32 `yaml:"near" toml:"near"`
	Far        float32 `yaml:"far" toml:"far"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:   "lightshow",
			Width:   800,
			Height:  600,
			VSync:   true,
			Backend: "glfw",
		},
		Layout: LayoutConfig{
			ToolbarHeight: 40,
			SidebarWidth:  200,
		},
		Assets: AssetsConfig{
			MeshDir:        "res/obj/Chandelier_03",
			MeshFile:       "Chandelier_03.obj",
			VertexShader:   "res/shader/pbr.vert",
			FragmentShader: "res/shader/pbr.frag",
			ScreenshotDir:  "screenshots",
		},
		Camera: CameraConfig{
			FOVDegrees: 70,
			Near:       0.1,
			Far:        100,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
