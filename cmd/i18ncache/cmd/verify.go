package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Shopify/i18n/pkg/cache"
)

var (
	verifyPaths  []string
	verifyDigest bool
)

var errFingerprintMismatch = errors.New("fingerprint mismatch")

var verifyCmd = &cobra.Command{
	Use:   "verify <cache-file>",
	Short: "Recompute the source fingerprint and compare it to the frame",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		_, header, err := cache.ReadFile(args[0])
		if err != nil {
			printError("read cache", err)
			return err
		}

		want, err := cache.Fingerprint(verifyPaths, verifyDigest)
		if err != nil {
			printError("fingerprint sources", err)
			return err
		}

		if header.Fingerprint != want {
			fmt.Println(badStyle.Render("STALE"), "cache:", header.Fingerprint, "sources:", want)
			return errFingerprintMismatch
		}
		fmt.Println(okStyle.Render("VALID"), want)
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringSliceVar(&verifyPaths, "paths", nil, "ordered source file paths")
	verifyCmd.Flags().BoolVar(&verifyDigest, "digest", false, "use content digests instead of path+mtime")
	verifyCmd.MarkFlagRequired("paths")
	rootCmd.AddCommand(verifyCmd)
}
