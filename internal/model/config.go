package model

type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	Timeout int    `yaml:"timeout"` // seconds
}

type UserConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type OrganizationConfig struct {
	Name    string   `yaml:"name"`
	Company *Company `yaml:"company,omitempty"`
}

type AttachmentConfig struct {
	MaxFiles      int      `yaml:"max_files"`
	MaxFileSizeMB int      `yaml:"max_file_size_mb"`
	AcceptedTypes []string `yaml:"accepted_types"`
}

type TelemetryConfig struct {
	Enable  bool   `yaml:"enable"`
	LogFile string `yaml:"log_file"`
}

type SyncConfig struct {
	Enable     bool   `yaml:"enable"`
	Bucket     string `yaml:"bucket"`
	Prefix     string `yaml:"prefix"`
	AWSProfile string `yaml:"aws_profile"`
	AWSRegion  string `yaml:"aws_region"`
}

type Config struct {
	API          APIConfig          `yaml:"api"`
	User         UserConfig         `yaml:"user"`
	Organization OrganizationConfig `yaml:"organization"`
	CacheDir     string             `yaml:"cache_dir"`
	Editor       string             `yaml:"editor"`
	Attachments  AttachmentConfig   `yaml:"attachments"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Sync         SyncConfig         `yaml:"sync"`
}

func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:5000",
			Timeout: 30,
		},
		CacheDir: "~/.config/dtl/cache",
		Editor:   "vim",
		Attachments: AttachmentConfig{
			MaxFiles:      5,
			MaxFileSizeMB: 10,
			AcceptedTypes: []string{
				"image/*", "video/*", "audio/*",
				".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt", ".zip", ".rar",
			},
		},
		Telemetry: TelemetryConfig{
			LogFile: "~/.config/dtl/telemetry.log",
		},
		Sync: SyncConfig{
			Prefix:    "dtl",
			AWSRegion: "ap-northeast-1",
		},
	}
}

// CompanyRequired reports whether the organization supplies a fixed
// company, which makes company_served a required form field.
func (c Config) CompanyRequired() bool {
	return c.Organization.Company != nil && c.Organization.Company.Name != ""
}
