package assets

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/crucial707/itam/cmd/cli/client"
	"github.com/crucial707/itam/cmd/cli/output"
	"github.com/crucial707/itam/internal/models"
)

// ==========================
// Init Assets
// ==========================
func InitAssets(rootCmd *cobra.Command) {

	assetsCmd := &cobra.Command{
		Use:   "assets",
		Short: "Browse assets and preview asset codes",
	}

	assetsCmd.AddCommand(
		nextCodeCmd(),
		listAssetsCmd(),
		getAssetCmd(),
	)

	rootCmd.AddCommand(assetsCmd)
}

// ==========================
// NEXT CODE
// ==========================
func nextCodeCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "next-code",
		Short: "Preview the next asset code for a category",
		Long: `Preview the code the next asset of this category would get.
Nothing is reserved; the code actually assigned may differ.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				NextCode string `json:"nextCode"`
			}
			if err := client.Do("GET", "/api/assets/next-code?type="+url.QueryEscape(category), nil, &out); err != nil {
				return err
			}
			if output.WantJSON(cmd) {
				return output.PrintJSON(out)
			}
			fmt.Println(out.NextCode)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "type", "", "asset category, e.g. Laptop")
	output.AddJSONFlag(cmd)
	return cmd
}

// ==========================
// LIST
// ==========================
func listAssetsCmd() *cobra.Command {
	var search, category, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if search != "" {
				q.Set("search", search)
			}
			if category != "" {
				q.Set("type", category)
			}
			if status != "" {
				q.Set("status", status)
			}
			path := "/api/assets"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var assets []models.Asset
			if err := client.Do("GET", path, nil, &assets); err != nil {
				return err
			}
			if output.WantJSON(cmd) {
				return output.PrintJSON(assets)
			}

			rows := make([][]interface{}, 0, len(assets))
			for _, a := range assets {
				rows = append(rows, []interface{}{
					a.ID, a.AssetCode, a.Name, a.Type, a.Status,
					output.Dash(a.Location), output.Dash(a.AssignedTo),
				})
			}
			output.RenderTable([]string{"ID", "Code", "Name", "Type", "Status", "Location", "Assigned To"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "match code, name or serial number")
	cmd.Flags().StringVar(&category, "type", "", "filter by category")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	output.AddJSONFlag(cmd)
	return cmd
}

// ==========================
// GET
// ==========================
func getAssetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show one asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var a models.Asset
			if err := client.Do("GET", "/api/assets/"+url.PathEscape(args[0]), nil, &a); err != nil {
				return err
			}
			if output.WantJSON(cmd) {
				return output.PrintJSON(a)
			}
			output.RenderTable([]string{"Field", "Value"}, [][]interface{}{
				{"ID", a.ID},
				{"Code", a.AssetCode},
				{"Name", a.Name},
				{"Type", a.Type},
				{"Status", a.Status},
				{"Brand", output.Dash(a.Brand)},
				{"Model", output.Dash(a.Model)},
				{"Serial", output.Dash(a.SerialNumber)},
				{"Location", output.Dash(a.Location)},
				{"Assigned To", output.Dash(a.AssignedTo)},
			})
			return nil
		},
	}
	output.AddJSONFlag(cmd)
	return cmd
}
