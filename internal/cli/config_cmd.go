package cli

import (
	"github.com/spf13/cobra"
)

// effectiveConfig is the printable view of the loaded configuration; secrets are omitted.
type effectiveConfig struct {
	APIBaseURL            string  `json:"apiBaseUrl"`
	AdminUserID           string  `json:"adminUserId"`
	RequestTimeout        string  `json:"requestTimeout"`
	InsecureSkipVerify    bool    `json:"insecureSkipVerify"`
	APIRunCommand         string  `json:"apiRunCommand"`
	APIProjectPath        string  `json:"apiProjectPath"`
	APILaunchDelaySec     float64 `json:"apiLaunchDelaySec"`
	APIStatusMessage      string  `json:"apiStatusMessage"`
	ReadinessMode         string  `json:"readinessMode"`
	ReadinessPollInterval string  `json:"readinessPollInterval"`
	DatabaseFile          string  `json:"databaseFile"`
	LoggingLevel          string  `json:"loggingLevel"`
	LogDir                string  `json:"logDir"`
	MetricsAddr           string  `json:"metricsAddr,omitempty"`
	RedisAddr             string  `json:"redisAddr,omitempty"`
	EventsChannel         string  `json:"eventsChannel"`
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Print the effective configuration as YAML (or -o json)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg
			view := effectiveConfig{
				APIBaseURL:            c.APIBaseURL,
				AdminUserID:           c.AdminUserID,
				RequestTimeout:        c.RequestTimeout.String(),
				InsecureSkipVerify:    c.InsecureSkipVerify,
				APIRunCommand:         c.APIRunCommand,
				APIProjectPath:        c.APIProjectPath,
				APILaunchDelaySec:     c.APILaunchDelay.Seconds(),
				APIStatusMessage:      c.APIStatusMessage,
				ReadinessMode:         c.ReadinessMode,
				ReadinessPollInterval: c.ReadinessPollInterval.String(),
				DatabaseFile:          c.DatabaseFile,
				LoggingLevel:          c.LoggingLevel,
				LogDir:                c.LogDir,
				MetricsAddr:           c.MetricsAddr,
				RedisAddr:             c.RedisAddr,
				EventsChannel:         c.EventsChannel,
			}
			if a.output == "json" {
				return printJSON(a.stdout, view)
			}
			return printYAML(a.stdout, view)
		},
	}
	cmd.AddCommand(viewCmd)
	return cmd
}
