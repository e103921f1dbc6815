package main

import (
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			enc := yaml.NewEncoder(a.stdout)
			enc.SetIndent(2)
			if err := enc.Encode(a.settings()); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

// settings lists the effective values under their dotted config keys.
func (a *app) settings() map[string]any {
	keys := a.v.AllKeys()
	out := make(map[string]any, len(keys))
	for _, key := range keys {
		value := a.v.Get(key)
		if d, ok := value.(time.Duration); ok {
			value = d.String()
		}
		out[key] = value
	}
	return out
}
