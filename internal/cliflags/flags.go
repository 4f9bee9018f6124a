package cliflags

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type (
	flagType interface {
		string | int | bool
	}

	// Def declares a command-line flag bound to a viper key and, optionally,
	// to an environment variable.
	Def[T flagType] struct {
		Name         string
		ViperKey     string
		Env          string
		DefaultValue T
		Description  string
	}
)

// Declare registers every flag on cmd and binds it to v.
func Declare[T flagType](cmd *cobra.Command, v *viper.Viper, flags []Def[T]) error {
	for _, flag := range flags {
		if err := declare(cmd, v, flag); err != nil {
			return err
		}
	}
	return nil
}

func declare[T flagType](cmd *cobra.Command, v *viper.Viper, flag Def[T]) error {
	switch value := any(flag.DefaultValue).(type) {
	case string:
		cmd.Flags().String(flag.Name, value, flag.Description)
	case int:
		cmd.Flags().Int(flag.Name, value, flag.Description)
	case bool:
		cmd.Flags().Bool(flag.Name, value, flag.Description)
	}

	if err := v.BindPFlag(flag.ViperKey, cmd.Flags().Lookup(flag.Name)); err != nil {
		return fmt.Errorf("failed to bind flag '%s': %w", flag.Name, err)
	}

	if flag.Env != "" {
		if err := v.BindEnv(flag.ViperKey, flag.Env); err != nil {
			return fmt.Errorf("failed to bind env '%s': %w", flag.Env, err)
		}
	}

	return nil
}
