/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nakachan-ing/dtl-cli/internal/model"
	"github.com/nakachan-ing/dtl-cli/internal/store"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configField binds a dotted config key to its accessors.
type configField struct {
	key    string
	secret bool
	get    func(c *model.Config) string
	set    func(c *model.Config, v string) error
}

func intSetter(dst func(c *model.Config) *int) func(c *model.Config, v string) error {
	return func(c *model.Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return fmt.Errorf("%q is not a non-negative integer", v)
		}
		*dst(c) = n
		return nil
	}
}

func boolSetter(dst func(c *model.Config) *bool) func(c *model.Config, v string) error {
	return func(c *model.Config, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%q is not a boolean", v)
		}
		*dst(c) = b
		return nil
	}
}

func stringSetter(dst func(c *model.Config) *string) func(c *model.Config, v string) error {
	return func(c *model.Config, v string) error {
		*dst(c) = strings.TrimSpace(v)
		return nil
	}
}

var configFields = []configField{
	{key: "api.base_url",
		get: func(c *model.Config) string { return c.API.BaseURL },
		set: stringSetter(func(c *model.Config) *string { return &c.API.BaseURL })},
	{key: "api.token", secret: true,
		get: func(c *model.Config) string { return c.API.Token },
		set: stringSetter(func(c *model.Config) *string { return &c.API.Token })},
	{key: "api.timeout",
		get: func(c *model.Config) string { return strconv.Itoa(c.API.Timeout) },
		set: intSetter(func(c *model.Config) *int { return &c.API.Timeout })},
	{key: "user.id",
		get: func(c *model.Config) string { return c.User.ID },
		set: stringSetter(func(c *model.Config) *string { return &c.User.ID })},
	{key: "user.name",
		get: func(c *model.Config) string { return c.User.Name },
		set: stringSetter(func(c *model.Config) *string { return &c.User.Name })},
	{key: "organization.name",
		get: func(c *model.Config) string { return c.Organization.Name },
		set: stringSetter(func(c *model.Config) *string { return &c.Organization.Name })},
	{key: "organization.company",
		get: func(c *model.Config) string {
			if c.Organization.Company == nil {
				return ""
			}
			return c.Organization.Company.Name
		},
		set: func(c *model.Config, v string) error {
			v = strings.TrimSpace(v)
			if v == "" {
				c.Organization.Company = nil
				return nil
			}
			if c.Organization.Company == nil {
				c.Organization.Company = &model.Company{}
			}
			c.Organization.Company.Name = v
			return nil
		}},
	{key: "cache_dir",
		get: func(c *model.Config) string { return c.CacheDir },
		set: stringSetter(func(c *model.Config) *string { return &c.CacheDir })},
	{key: "editor",
		get: func(c *model.Config) string { return c.Editor },
		set: stringSetter(func(c *model.Config) *string { return &c.Editor })},
	{key: "attachments.max_files",
		get: func(c *model.Config) string { return strconv.Itoa(c.Attachments.MaxFiles) },
		set: intSetter(func(c *model.Config) *int { return &c.Attachments.MaxFiles })},
	{key: "attachments.max_file_size_mb",
		get: func(c *model.Config) string { return strconv.Itoa(c.Attachments.MaxFileSizeMB) },
		set: intSetter(func(c *model.Config) *int { return &c.Attachments.MaxFileSizeMB })},
	{key: "attachments.accepted_types",
		get: func(c *model.Config) string { return strings.Join(c.Attachments.AcceptedTypes, ",") },
		set: func(c *model.Config, v string) error {
			var types []string
			for _, t := range strings.Split(v, ",") {
				if t = strings.TrimSpace(t); t != "" {
					types = append(types, t)
				}
			}
			c.Attachments.AcceptedTypes = types
			return nil
		}},
	{key: "telemetry.enable",
		get: func(c *model.Config) string { return strconv.FormatBool(c.Telemetry.Enable) },
		set: boolSetter(func(c *model.Config) *bool { return &c.Telemetry.Enable })},
	{key: "telemetry.log_file",
		get: func(c *model.Config) string { return c.Telemetry.LogFile },
		set: stringSetter(func(c *model.Config) *string { return &c.Telemetry.LogFile })},
	{key: "sync.enable",
		get: func(c *model.Config) string { return strconv.FormatBool(c.Sync.Enable) },
		set: boolSetter(func(c *model.Config) *bool { return &c.Sync.Enable })},
	{key: "sync.bucket",
		get: func(c *model.Config) string { return c.Sync.Bucket },
		set: stringSetter(func(c *model.Config) *string { return &c.Sync.Bucket })},
	{key: "sync.prefix",
		get: func(c *model.Config) string { return c.Sync.Prefix },
		set: stringSetter(func(c *model.Config) *string { return &c.Sync.Prefix })},
	{key: "sync.aws_profile",
		get: func(c *model.Config) string { return c.Sync.AWSProfile },
		set: stringSetter(func(c *model.Config) *string { return &c.Sync.AWSProfile })},
	{key: "sync.aws_region",
		get: func(c *model.Config) string { return c.Sync.AWSRegion },
		set: stringSetter(func(c *model.Config) *string { return &c.Sync.AWSRegion })},
}

func lookupConfigField(key string) (configField, error) {
	for _, f := range configFields {
		if f.key == key {
			return f, nil
		}
	}
	return configField{}, fmt.Errorf("unknown config key %q", key)
}

func maskSecret(v string) string {
	if len(v) <= 4 {
		return strings.Repeat("*", len(v))
	}
	return strings.Repeat("*", len(v)-4) + v[len(v)-4:]
}

const saveAndExit = "Save & Exit"

type configModel struct {
	cursor    int
	config    model.Config
	path      string
	textInput textinput.Model
	editMode  bool
	message   string
	saved     bool
}

func newConfigModel(config model.Config, path string) *configModel {
	return &configModel{
		config:    config,
		path:      path,
		textInput: textinput.New(),
	}
}

func (m *configModel) Init() tea.Cmd {
	return nil
}

func (m *configModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.editMode {
		switch key.String() {
		case "enter":
			field := configFields[m.cursor]
			if err := field.set(&m.config, m.textInput.Value()); err != nil {
				m.message = "❌ " + err.Error()
			} else {
				m.message = "✅ " + field.key + " updated"
			}
			m.editMode = false
			m.textInput.Blur()
			return m, tea.ClearScreen
		case "esc":
			m.editMode = false
			m.textInput.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(configFields) {
			m.cursor++
		}
	case "enter":
		if m.cursor == len(configFields) {
			if err := store.SaveConfigTo(m.path, m.config); err != nil {
				m.message = "⚠️ Failed to save config file: " + err.Error()
				return m, nil
			}
			m.saved = true
			return m, tea.Quit
		}
		m.editMode = true
		m.message = ""
		m.textInput.SetValue(configFields[m.cursor].get(&m.config))
		m.textInput.CursorEnd()
		return m, m.textInput.Focus()
	}
	return m, nil
}

func (m *configModel) View() string {
	var s strings.Builder
	s.WriteString("📄 Configure dtl\n\n")

	for i, field := range configFields {
		cursor := "  "
		if m.cursor == i {
			cursor = "👉"
		}
		value := field.get(&m.config)
		if field.secret {
			value = maskSecret(value)
		}
		fmt.Fprintf(&s, "%s %s: %s\n", cursor, field.key, value)
	}
	cursor := "  "
	if m.cursor == len(configFields) {
		cursor = "👉"
	}
	fmt.Fprintf(&s, "%s %s\n", cursor, saveAndExit)

	if m.editMode {
		s.WriteString("\n✏️  Editing: " + configFields[m.cursor].key + "\n")
		s.WriteString(m.textInput.View() + "\n")
		s.WriteString("(Enter to apply, ESC to cancel)\n")
	} else {
		s.WriteString("\n⬆️⬇️ to move, Enter to edit, Q to quit without saving\n")
	}
	if m.message != "" {
		s.WriteString("\n" + m.message + "\n")
	}
	return s.String()
}

// readConfigFile reads the file as written, without env overrides, so
// values from the environment are never persisted.
func readConfigFile() (model.Config, string, error) {
	configPath, err := store.GetConfigPath()
	if err != nil {
		return model.Config{}, "", fmt.Errorf("failed to get config path: %w", err)
	}
	config := model.DefaultConfig()
	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return config, configPath, nil
	}
	if err != nil {
		return model.Config{}, "", fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return model.Config{}, "", fmt.Errorf("failed to parse YAML: %w", err)
	}
	return config, configPath, nil
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configure config.yaml interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, configPath, err := readConfigFile()
		if err != nil {
			return err
		}
		fmt.Println(configPath)

		final, err := tea.NewProgram(newConfigModel(config, configPath)).Run()
		if err != nil {
			return fmt.Errorf("error running TUI: %w", err)
		}
		if m, ok := final.(*configModel); ok && m.saved {
			fmt.Println("✅ Config saved:", configPath)
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print config values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, _, err := readConfigFile()
		if err != nil {
			return err
		}
		if len(args) == 1 {
			field, err := lookupConfigField(args[0])
			if err != nil {
				return err
			}
			fmt.Println(field.get(&config))
			return nil
		}
		for _, field := range configFields {
			value := field.get(&config)
			if field.secret {
				value = maskSecret(value)
			}
			fmt.Printf("%s = %s\n", field.key, value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, configPath, err := readConfigFile()
		if err != nil {
			return err
		}
		field, err := lookupConfigField(args[0])
		if err != nil {
			return err
		}
		if err := field.set(&config, args[1]); err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		if err := store.SaveConfigTo(configPath, config); err != nil {
			return err
		}
		fmt.Printf("✅ %s updated\n", field.key)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
