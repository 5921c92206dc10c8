package emails

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
// Init Emails
// ==========================
func InitEmails(rootCmd *cobra.Command) {

	emailsCmd := &cobra.Command{
		Use:   "emails",
		Short: "Manage mailbox registrations for new staff",
	}

	emailsCmd.AddCommand(
		listEmailsCmd(),
		registerEmailCmd(),
		deleteEmailCmd(),
	)

	rootCmd.AddCommand(emailsCmd)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// ==========================
// LIST
// ==========================
func listEmailsCmd() *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered emails",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/emails"
			if search != "" {
				path += "?search=" + url.QueryEscape(search)
			}
			var list []models.RegistrationEmail
			if err := client.Do("GET", path, nil, &list); err != nil {
				return err
			}
			if output.WantJSON(cmd) {
				return output.PrintJSON(list)
			}

			rows := make([][]interface{}, 0, len(list))
			for _, e := range list {
				rows = append(rows, []interface{}{
					e.ID, e.Email, output.Dash(e.FullName), output.Dash(e.Department),
					yesNo(e.IsPC), yesNo(e.IsMobile),
				})
			}
			output.RenderTable([]string{"ID", "Email", "Name", "Department", "PC", "Mobile"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "match address, name, position, department or notes")
	output.AddJSONFlag(cmd)
	return cmd
}

// ==========================
// REGISTER
// ==========================
func registerEmailCmd() *cobra.Command {
	var reg models.RegistrationEmail

	cmd := &cobra.Command{
		Use:   "register [email]",
		Short: "Register a mailbox for a new staff member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg.Email = args[0]
			var out struct {
				ID int64 `json:"id"`
			}
			if err := client.Do("POST", "/api/emails", reg, &out); err != nil {
				return err
			}
			fmt.Printf("Registered %s (id %d)\n", reg.Email, out.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&reg.FullName, "name", "", "staff member's full name")
	f.StringVar(&reg.Position, "position", "", "job title")
	f.StringVar(&reg.Department, "department", "", "department")
	f.BoolVar(&reg.IsPC, "pc", false, "a PC should be provisioned")
	f.BoolVar(&reg.IsMobile, "mobile", false, "a mobile device should be provisioned")
	f.StringVar(&reg.Notes, "notes", "", "free-form notes")
	return cmd
}

// ==========================
// DELETE
// ==========================
func deleteEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an email registration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("invalid email id %q", args[0])
			}
			if err := client.Do("DELETE", "/api/emails/"+args[0], nil, nil); err != nil {
				return err
			}
			fmt.Printf("Email registration %s deleted\n", args[0])
			return nil
		},
	}
}
