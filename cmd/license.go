package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/revenue-intel/internal/license"
)

var licenseCmd = &cobra.Command{
	Use:   "license",
	Short: "Show license status",
	Long:  "Validates the configured license key (using the cache when fresh) and prints the tier.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cache, closer, err := openLicenseCache(ctx, cfg.License)
		if err != nil {
			return err
		}
		if closer != nil {
			defer closer.Close() //nolint:errcheck
		}

		info := license.NewValidator(license.Config{
			Key:         cfg.License.Key,
			StoreID:     cfg.License.StoreID,
			ProductID:   cfg.License.ProductID,
			ValidateURL: cfg.License.ValidateURL,
		}, cache).Validate(ctx)

		licenseNotice(cmd.ErrOrStderr(), info)
		return renderFlags(cmd, report{value: info})
	},
}

func init() {
	addOutputFlags(licenseCmd)
	rootCmd.AddCommand(licenseCmd)
}
