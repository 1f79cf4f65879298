// Package cmd implements the go-inject command line.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	demo "github.com/km-arc/go-inject/app"
	kernel "github.com/km-arc/go-inject/framework/app"
)

var version = "dev"

// SetVersion sets the version reported by --version.
func SetVersion(v string) { version = v }

// NewRootCommand builds the command tree. Flags are bound through viper, so
// every flag can also be set from a GOINJECT_* environment variable.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("goinject")
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "go-inject",
		Short:         "A dependency-injection container with an HTTP front end",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSlice("env", nil, ".env files to load (default: .env)")
	root.PersistentFlags().String("params", "", "YAML parameters file (overrides CONTAINER_PARAMETERS)")
	_ = v.BindPFlag("env", root.PersistentFlags().Lookup("env"))
	_ = v.BindPFlag("params", root.PersistentFlags().Lookup("params"))

	root.AddCommand(newServeCommand(v), newServicesCommand(v))
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// newApplication bootstraps the application with the demo services.
func newApplication(v *viper.Viper) (*kernel.Application, error) {
	a, err := kernel.Bootstrap(kernel.Options{
		EnvFiles:       v.GetStringSlice("env"),
		ParametersFile: v.GetString("params"),
	})
	if err != nil {
		return nil, err
	}
	if err := a.Providers.Register(&demo.AppServiceProvider{}); err != nil {
		return nil, err
	}
	return a, nil
}
