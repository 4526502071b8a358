package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/JOJ0/discodos-sub001/internal/app"
	"github.com/JOJ0/discodos-sub001/internal/config"
	"github.com/JOJ0/discodos-sub001/internal/discosync"
	"github.com/JOJ0/discodos-sub001/internal/prompt"
)

// Root flags shared by every command.
var (
	configPath  string
	backendType string
	localFile   string
)

var (
	success = color.New(color.FgGreen).SprintFunc()
	notice  = color.New(color.FgYellow).SprintFunc()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(discosync.ExitCode(err))
	}
}

// printError writes err and every hint attached to it.
func printError(w io.Writer, err error) {
	color.New(color.FgRed, color.Bold).Fprint(w, "Error: ")
	fmt.Fprintln(w, err)
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(w, "Hint: %s\n", hint)
	}
}

// resolveConfigPath returns --config or the default config location.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	defaults, err := app.GetDefaults()
	if err != nil {
		return "", fmt.Errorf("getting defaults: %w", err)
	}
	return defaults["config_path"], nil
}

// applyOverrides applies --type and --file on top of the config file.
func applyOverrides(cfg *config.Config, backendType, file string) error {
	if backendType != "" {
		cfg.Backend.Type = config.NormalizeBackendType(backendType)
	}
	if file != "" {
		abs, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}
		cfg.Discobase = abs
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.ReadFromFile(path)
	if err != nil {
		return nil, errors.WithHint(
			fmt.Errorf("reading config: %w", err),
			"run 'discosync config init' to create one",
		)
	}
	if err := applyOverrides(cfg, backendType, localFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp reads the config and creates a DiscoApp. The caller must defer app.Close().
func newApp() (*app.DiscoApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.NewDiscoApp(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:           "discosync",
	Short:         "Back up and restore the DiscoDOS database to remote storage",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}

		cfg := config.NewConfig(filepath.Join(defaults["base_dir"], "discobase.db"), defaults["base_dir"])
		if err := applyOverrides(cfg, backendType, localFile); err != nil {
			return err
		}

		if err := config.Init(path, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", path)
		fmt.Printf("Discobase: %s\n", cfg.Discobase)
		fmt.Printf("Backend:   %s\n", cfg.Backend.Type)
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		m := &config.Manager{}
		return m.Write(os.Stdout, cfg.Masked())
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Upload the current discobase as a new version",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Backup()
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}

		switch res.Outcome {
		case discosync.AlreadyExists:
			fmt.Printf("%s %s, nothing uploaded.\n", notice("Already backed up:"), res.VersionName)
		default:
			fmt.Printf("%s %s (%d bytes)\n\n", success("Uploaded"), res.VersionName, res.Size)
			if res.Entries != nil {
				prompt.WriteEntries(os.Stdout, res.Entries, a.Codec())
			}
		}
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List remote versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.List()
		if err != nil {
			return fmt.Errorf("listing failed: %w", err)
		}
		prompt.WriteEntries(os.Stdout, entries, a.Codec())
		return nil
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace the local discobase with a remote version",
	RunE: func(cmd *cobra.Command, args []string) error {
		pick, _ := cmd.Flags().GetBool("pick")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Restore(prompt.New(pick, os.Stdin, os.Stdout, a.Codec()))
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}

		switch res.Outcome {
		case discosync.Restored:
			fmt.Printf("%s %s (backup time %s)\n", success("Restored"), res.Entry.Name, res.ModTime.Format(time.DateTime))
			if res.TimestampErr != nil {
				fmt.Printf("%s could not set file times: %v\n", notice("Warning:"), res.TimestampErr)
			}
		case discosync.NonExistentID:
			fmt.Println(notice("Non-existent ID, nothing restored."))
		case discosync.Declined:
			fmt.Println(notice("Restore declined, local file unchanged."))
		default:
			fmt.Println(notice("Nothing to restore."))
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View backup and restore history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.Finished() {
				duration = op.Duration().Truncate(time.Millisecond).String()
			}
			status, result := success(op.Status), op.Outcome
			if op.Status != app.StatusSuccess {
				status, result = notice(op.Status), op.ErrorKind
			}
			fmt.Printf("#%d  %-8s  %s  %-10s  %-7s  %-18s  %s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Local().Format(time.DateTime),
				op.Backend,
				status,
				result,
				op.VersionName,
				duration,
			)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $DISCOSYNC_CONFIG_PATH or ~/.config/discosync.toml)")
	rootCmd.PersistentFlags().StringVarP(&backendType, "type", "t", "", "Backend type: dropbox (d), webdav (w), s3, filesystem or memory")
	rootCmd.PersistentFlags().StringVarP(&localFile, "file", "l", "", "Local discobase file")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().BoolP("pick", "p", false, "Pick the version with an interactive fuzzy finder")
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
}
