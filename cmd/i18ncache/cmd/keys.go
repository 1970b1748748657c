package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Shopify/i18n/pkg/cache"
	"github.com/Shopify/i18n/pkg/index"
)

var keysLocale string

var keysCmd = &cobra.Command{
	Use:   "keys <cache-file>",
	Short: "List schema keys, optionally restricted to one locale",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		snap, _, err := cache.ReadFile(args[0])
		if err != nil {
			printError("read cache", err)
			return err
		}
		ix, err := index.FromSnapshot(snap)
		if err != nil {
			printError("restore index", err)
			return err
		}

		if keysLocale != "" {
			for _, key := range snap.SchemaKeys {
				if v, ok := ix.Lookup(keysLocale, key); ok {
					fmt.Printf("%s\t%v\n", key, compactValue(v))
				}
			}
			return nil
		}

		locales := ix.Locales()
		sort.Strings(locales)
		for _, key := range snap.SchemaKeys {
			present := make([]string, 0, len(locales))
			for _, locale := range locales {
				if _, ok := ix.Lookup(locale, key); ok {
					present = append(present, locale)
				}
			}
			fmt.Printf("%s\t%v\n", key, present)
		}
		return nil
	},
}

// compactValue keeps long values to one terminal line.
func compactValue(v any) string {
	s := fmt.Sprintf("%v", v)
	if len(s) > 80 {
		return s[:77] + "..."
	}
	return s
}

func init() {
	keysCmd.Flags().StringVarP(&keysLocale, "locale", "l", "", "show decoded values for one locale")
	rootCmd.AddCommand(keysCmd)
}
