package tickets

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/crucial707/itam/cmd/cli/client"
	"github.com/crucial707/itam/cmd/cli/output"
	"github.com/crucial707/itam/internal/models"
)

// ==========================
// Init Tickets
// ==========================
func InitTickets(rootCmd *cobra.Command) {

	ticketsCmd := &cobra.Command{
		Use:     "tickets",
		Aliases: []string{"maintenance"},
		Short:   "Manage maintenance tickets",
	}

	ticketsCmd.AddCommand(
		listTicketsCmd(),
		createTicketCmd(),
		startTicketCmd(),
		completeTicketCmd(),
		deleteTicketCmd(),
		historyCmd(),
	)

	rootCmd.AddCommand(ticketsCmd)
}

func ticketPath(id string) (string, error) {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return "", fmt.Errorf("invalid ticket id %q", id)
	}
	return "/api/maintenance/" + id, nil
}

// ==========================
// LIST
// ==========================
func listTicketsCmd() *cobra.Command {
	var date string
	var assetID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List maintenance tickets",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if date != "" {
				q.Set("date", date)
			}
			if assetID > 0 {
				q.Set("asset_id", strconv.FormatInt(assetID, 10))
			}
			path := "/api/maintenance"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var tickets []models.Ticket
			if err := client.Do("GET", path, nil, &tickets); err != nil {
				return err
			}
			if output.WantJSON(cmd) {
				return output.PrintJSON(tickets)
			}

			rows := make([][]interface{}, 0, len(tickets))
			for _, t := range tickets {
				created := "-"
				if t.CreatedAt != nil {
					created = t.CreatedAt.Format("2006-01-02 15:04")
				}
				rows = append(rows, []interface{}{
					t.ID, output.Dash(t.AssetCode), t.ServiceType, t.Status,
					output.Dash(t.ReporterName), output.Dash(t.TechnicianName), created,
				})
			}
			output.RenderTable([]string{"ID", "Asset", "Service", "Status", "Reporter", "Technician", "Created"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "only tickets from this day (YYYY-MM-DD)")
	cmd.Flags().Int64Var(&assetID, "asset-id", 0, "only tickets for this asset")
	output.AddJSONFlag(cmd)
	return cmd
}

// ==========================
// CREATE
// ==========================
func createTicketCmd() *cobra.Command {
	var (
		assetID      int64
		serviceType  string
		description  string
		reporter     string
		contact      string
		department   string
		location     string
		repairMethod string
		employee     string
		assetType    string
		email        string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a maintenance ticket",
		Long: `Open a maintenance ticket for an existing asset, or with
--service-type new_setup provision a new asset for an employee.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]any{
				"service_type":  serviceType,
				"description":   description,
				"reporter_name": reporter,
				"contact_info":  contact,
				"department":    department,
				"location":      location,
				"repair_method": repairMethod,
			}
			if assetID > 0 {
				payload["asset_id"] = assetID
			}
			if serviceType == string(models.ServiceNewSetup) {
				payload["new_employee_name"] = employee
				payload["asset_type"] = assetType
				payload["email"] = email
			}

			var out struct {
				ID      int64  `json:"id"`
				AssetID int64  `json:"asset_id"`
				Message string `json:"message"`
			}
			if err := client.Do("POST", "/api/maintenance", payload, &out); err != nil {
				return err
			}
			if output.WantJSON(cmd) {
				return output.PrintJSON(out)
			}
			fmt.Printf("Ticket %d created for asset %d\n", out.ID, out.AssetID)
			return nil
		},
	}

	f := cmd.Flags()
	f.Int64Var(&assetID, "asset-id", 0, "asset to repair or service")
	f.StringVar(&serviceType, "service-type", string(models.ServiceRepair), "repair, service or new_setup")
	f.StringVar(&description, "description", "", "what is wrong")
	f.StringVar(&reporter, "reporter", "", "who reported it")
	f.StringVar(&contact, "contact", "", "reporter contact info")
	f.StringVar(&department, "department", "", "reporter department")
	f.StringVar(&location, "location", "", "where the asset is")
	f.StringVar(&repairMethod, "repair-method", "", "internal or external")
	f.StringVar(&employee, "employee", "", "new employee name (new_setup)")
	f.StringVar(&assetType, "asset-type", "", "asset category to provision (new_setup)")
	f.StringVar(&email, "email", "", "new employee email (new_setup)")
	output.AddJSONFlag(cmd)
	return cmd
}

// ==========================
// START
// ==========================
func startTicketCmd() *cobra.Command {
	var technician, method string

	cmd := &cobra.Command{
		Use:   "start [id]",
		Short: "Move a pending ticket to in_progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ticketPath(args[0])
			if err != nil {
				return err
			}
			body := map[string]string{"technician_name": technician}
			if method != "" {
				body["repair_method"] = method
			}
			if err := client.Do("POST", path+"/start", body, nil); err != nil {
				return err
			}
			fmt.Printf("Ticket %s started by %s\n", args[0], technician)
			return nil
		},
	}

	cmd.Flags().StringVar(&technician, "technician", "", "technician taking the job")
	cmd.Flags().StringVar(&method, "repair-method", "", "internal or external")
	cmd.MarkFlagRequired("technician")
	return cmd
}

// ==========================
// COMPLETE
// ==========================
func completeTicketCmd() *cobra.Command {
	var signer, signature string

	cmd := &cobra.Command{
		Use:   "complete [id]",
		Short: "Close an in_progress ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ticketPath(args[0])
			if err != nil {
				return err
			}
			body := map[string]string{"signer_name": signer, "signature": signature}
			if err := client.Do("POST", path+"/complete", body, nil); err != nil {
				return err
			}
			fmt.Printf("Ticket %s completed\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&signer, "signer", "", "name of the person signing off")
	cmd.Flags().StringVar(&signature, "signature", "", "signature image as a data URL")
	return cmd
}

// ==========================
// DELETE
// ==========================
func deleteTicketCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ticketPath(args[0])
			if err != nil {
				return err
			}
			if err := client.Do("DELETE", path, nil, nil); err != nil {
				return err
			}
			fmt.Printf("Ticket %s deleted\n", args[0])
			return nil
		},
	}
}

// ==========================
// HISTORY
// ==========================
func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "Show the audit trail of a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ticketPath(args[0])
			if err != nil {
				return err
			}
			var events []models.TicketEvent
			if err := client.Do("GET", path+"/history", nil, &events); err != nil {
				return err
			}
			if output.WantJSON(cmd) {
				return output.PrintJSON(events)
			}
			rows := make([][]interface{}, 0, len(events))
			for _, e := range events {
				rows = append(rows, []interface{}{
					e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action,
					output.Dash(e.FromStatus), output.Dash(e.ToStatus), output.Dash(e.Details),
				})
			}
			output.RenderTable([]string{"When", "Action", "From", "To", "Details"}, rows)
			return nil
		},
	}
	output.AddJSONFlag(cmd)
	return cmd
}
