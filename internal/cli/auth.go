package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hearthkeep/hearthkeep/internal/api"
	"github.com/hearthkeep/hearthkeep/internal/config"
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and store the session token",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register <email> <name>",
	Short: "Create an account on the server",
	Args:  cobra.ExactArgs(2),
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the session and forget stored credentials",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user and household",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().String("password", "", "Password (prompted when omitted)")
	registerCmd.Flags().String("password", "", "Password (prompted when omitted)")
	logoutCmd.Flags().Bool("all", false, "Revoke every session of the account, not just this one")
}

func readPassword(cmd *cobra.Command) (string, error) {
	if pw, _ := cmd.Flags().GetString("password"); pw != "" {
		return pw, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func serverURL() (string, error) {
	if serverFlag != "" {
		return serverFlag, nil
	}
	if creds, err := config.ReadCredentials(); err == nil && creds != nil && creds.ServerURL != "" {
		return creds.ServerURL, nil
	}
	return "", fmt.Errorf("no server known, pass --server http://host:8080")
}

func runLogin(cmd *cobra.Command, args []string) error {
	url, err := serverURL()
	if err != nil {
		return err
	}
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	result, err := api.NewClient(url, "").Login(ctx, args[0], password)
	if err != nil {
		return err
	}

	if err := config.WriteCredentials(&config.Credentials{
		ServerURL: url,
		Token:     result.Token,
	}); err != nil {
		return err
	}

	fmt.Printf("Signed in as %s (%s)\n", result.User.Name, result.User.Email)
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	url, err := serverURL()
	if err != nil {
		return err
	}
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	result, err := api.NewClient(url, "").Register(ctx, args[0], args[1], password)
	if err != nil {
		return err
	}

	if err := config.WriteCredentials(&config.Credentials{
		ServerURL: url,
		Token:     result.Token,
	}); err != nil {
		return err
	}

	fmt.Printf("Account created for %s, signed in\n", result.User.Email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	client, _, err := loadClient()
	if err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	logout := client.Logout
	if all, _ := cmd.Flags().GetBool("all"); all {
		logout = client.LogoutAll
	}
	if err := logout(ctx); err != nil {
		// Forget local credentials even if the server call failed.
		fmt.Fprintf(os.Stderr, "warning: server logout failed: %v\n", err)
	}
	if err := config.DeleteCredentials(); err != nil {
		return err
	}

	fmt.Println("Signed out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	client, _, err := loadClient()
	if err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	info, err := client.Session(ctx)
	if err != nil {
		return describeSyncError(err)
	}

	fmt.Printf("%s <%s>\n", info.User.Name, info.User.Email)
	if info.Household != nil {
		fmt.Printf("Household: %s (join code %s)\n", info.Household.Name, info.Household.JoinCode)
		fmt.Printf("Member:    %s (%s)\n", info.Member.DisplayName, info.Member.Role)
	} else {
		fmt.Println("No household yet. Run: hearthctl household create <name>")
	}
	return nil
}
