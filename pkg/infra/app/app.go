// Package app provides application bootstrapping with Cobra, Viper, and Pflag.
//
// Flags are the single source of truth for option values. A config file and
// environment variables only fill flags the user did not set on the command
// line, so a config key is always the flag name:
//
//	chat:
//	  model: llama3-8b-8192
//	rag:
//	  top-k: 3
//
// Environment variables use the application name as prefix, with "." and "-"
// replaced by "_" (SENTINEL_ASK_RAG_TOP_K=3).
package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kart-io/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/sentinel-ask/pkg/app/cliflag"
)

// CliOptions is implemented by every command's option set.
type CliOptions interface {
	// Flags returns the option flags grouped by section.
	Flags() cliflag.NamedFlagSets
	// Complete fills derived values after flags and config are applied.
	Complete() error
	// Validate validates the options.
	Validate() error
}

// App is the main application structure.
type App struct {
	name        string
	envPrefix   string
	shortDesc   string
	description string
	options     CliOptions
	runFunc     RunFunc
	cmd         *cobra.Command
	args        cobra.PositionalArgs
	silence     bool
	noVersion   bool
	noConfig    bool
}

// RunFunc is the application's run function.
type RunFunc func() error

// Option configures an App.
type Option func(*App)

// WithName sets the application name.
func WithName(name string) Option {
	return func(a *App) {
		a.name = name
	}
}

// WithEnvPrefix overrides the environment variable prefix derived from the name.
func WithEnvPrefix(prefix string) Option {
	return func(a *App) {
		a.envPrefix = prefix
	}
}

// WithShortDescription sets the short description.
func WithShortDescription(desc string) Option {
	return func(a *App) {
		a.shortDesc = desc
	}
}

// WithDescription sets the long description.
func WithDescription(desc string) Option {
	return func(a *App) {
		a.description = desc
	}
}

// WithOptions sets the CLI options.
func WithOptions(opts CliOptions) Option {
	return func(a *App) {
		a.options = opts
	}
}

// WithRunFunc sets the run function.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) {
		a.runFunc = run
	}
}

// WithArgs sets the positional args validation.
func WithArgs(args cobra.PositionalArgs) Option {
	return func(a *App) {
		a.args = args
	}
}

// WithSilence disables error printing by cobra.
func WithSilence() Option {
	return func(a *App) {
		a.silence = true
	}
}

// WithNoVersion disables the version flag.
func WithNoVersion() Option {
	return func(a *App) {
		a.noVersion = true
	}
}

// WithNoConfig disables config file and environment loading.
func WithNoConfig() Option {
	return func(a *App) {
		a.noConfig = true
	}
}

// NewApp creates a new application instance.
func NewApp(opts ...Option) *App {
	a := &App{
		name: filepath.Base(os.Args[0]),
	}

	for _, opt := range opts {
		opt(a)
	}
	if a.envPrefix == "" {
		a.envPrefix = EnvPrefix(a.name)
	}

	a.buildCommand()
	return a
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:          a.name,
		Short:        a.shortDesc,
		Long:         a.description,
		RunE:         a.runCommand,
		Args:         a.args,
		SilenceUsage: true,
	}
	if a.args == nil {
		cmd.Args = cobra.NoArgs
	}
	if a.silence {
		cmd.SilenceErrors = true
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	a.addGlobalFlags(cmd)

	if a.options != nil {
		fss := a.options.Flags()
		for _, name := range fss.Order {
			cmd.Flags().AddFlagSet(fss.FlagSets[name])
		}

		cmd.SetUsageFunc(func(cmd *cobra.Command) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Usage:\n  %s\n", cmd.UseLine())
			cliflag.PrintSections(cmd.OutOrStdout(), fss, 0)
			fmt.Fprintf(cmd.OutOrStdout(), "\nGlobal flags:\n\n%s", cmd.PersistentFlags().FlagUsages())
			return nil
		})
	}

	a.cmd = cmd
}

func (a *App) addGlobalFlags(cmd *cobra.Command) {
	if !a.noConfig {
		cmd.PersistentFlags().StringP("config", "c", "", "Path to config file")
	}
	if !a.noVersion {
		version.AddFlags(cmd.PersistentFlags())
	}
	cmd.PersistentFlags().BoolP("help", "h", false, "Help for "+a.name)
}

func (a *App) runCommand(cmd *cobra.Command, _ []string) error {
	if !a.noVersion {
		version.PrintAndExitIfRequested()
	}

	if !a.noConfig {
		if err := a.loadConfig(cmd); err != nil {
			return err
		}
	}

	if a.options != nil {
		if err := a.options.Complete(); err != nil {
			return err
		}
		if err := a.options.Validate(); err != nil {
			return err
		}
	}

	if a.runFunc != nil {
		return a.runFunc()
	}
	return nil
}

// globalFlags are never filled from config or environment.
var globalFlags = map[string]bool{"config": true, "help": true, "version": true}

// loadConfig fills unset flags from the config file and the environment.
func (a *App) loadConfig(cmd *cobra.Command) error {
	v := viper.New()

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(a.name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), "."+a.name))
		v.AddConfigPath("/etc/" + a.name)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	expandEnvVars(v)

	v.SetEnvPrefix(a.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var errs []error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || globalFlags[f.Name] || !v.IsSet(f.Name) {
			return
		}
		if err := cmd.Flags().Set(f.Name, configValue(v, f)); err != nil {
			errs = append(errs, fmt.Errorf("invalid value for %s: %w", f.Name, err))
		}
	})
	return utilerrors.NewAggregate(errs)
}

// configValue renders a viper value in the textual form the flag parses.
func configValue(v *viper.Viper, f *pflag.Flag) string {
	switch f.Value.Type() {
	case "stringSlice", "stringArray":
		return strings.Join(v.GetStringSlice(f.Name), ",")
	default:
		return v.GetString(f.Name)
	}
}

// EnvPrefix returns the environment variable prefix for an application name.
func EnvPrefix(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars expands ${VAR} and $VAR references in string config values.
// Unknown variables are kept as written.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		expanded := envPattern.ReplaceAllStringFunc(strVal, func(match string) string {
			varName := match[1:]
			if strings.HasPrefix(match, "${") {
				varName = match[2 : len(match)-1]
			}
			if envVal, ok := os.LookupEnv(varName); ok {
				return envVal
			}
			return match
		})
		if expanded != strVal {
			v.Set(key, expanded)
		}
	}
}

// Run executes the application and exits the process on error.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		if a.silence {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// Command returns the cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}
