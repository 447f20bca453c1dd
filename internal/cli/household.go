package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var householdCmd = &cobra.Command{
	Use:   "household",
	Short: "Create, join, or inspect your household",
}

var householdCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a household with you as admin",
	Args:  cobra.ExactArgs(1),
	RunE:  runHouseholdCreate,
}

var householdJoinCmd = &cobra.Command{
	Use:   "join <code>",
	Short: "Join an existing household by join code",
	Args:  cobra.ExactArgs(1),
	RunE:  runHouseholdJoin,
}

var householdShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your household and its join code",
	Args:  cobra.NoArgs,
	RunE:  runHouseholdShow,
}

var householdMembersCmd = &cobra.Command{
	Use:   "members",
	Short: "List household members",
	Args:  cobra.NoArgs,
	RunE:  runHouseholdMembers,
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show completed-task points per member",
	Args:  cobra.NoArgs,
	RunE:  runLeaderboard,
}

func init() {
	householdCreateCmd.Flags().String("as", "", "Your display name in the household (defaults to account name)")
	householdJoinCmd.Flags().String("as", "", "Your display name in the household (defaults to account name)")

	householdCmd.AddCommand(householdCreateCmd)
	householdCmd.AddCommand(householdJoinCmd)
	householdCmd.AddCommand(householdShowCmd)
	householdCmd.AddCommand(householdMembersCmd)
}

func displayName(cmd *cobra.Command) (string, error) {
	if name, _ := cmd.Flags().GetString("as"); name != "" {
		return name, nil
	}

	client, _, err := loadClient()
	if err != nil {
		return "", err
	}
	ctx, cancel := cmdContext()
	defer cancel()
	info, err := client.Session(ctx)
	if err != nil {
		return "", describeSyncError(err)
	}
	return info.User.Name, nil
}

func runHouseholdCreate(cmd *cobra.Command, args []string) error {
	name, err := displayName(cmd)
	if err != nil {
		return err
	}
	client, _, err := loadClient()
	if err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	result, err := client.CreateHousehold(ctx, args[0], name)
	if err != nil {
		return describeSyncError(err)
	}

	fmt.Printf("Created household %q\n", result.Household.Name)
	fmt.Printf("Join code: %s (share it to invite members)\n", result.Household.JoinCode)
	return nil
}

func runHouseholdJoin(cmd *cobra.Command, args []string) error {
	name, err := displayName(cmd)
	if err != nil {
		return err
	}
	client, _, err := loadClient()
	if err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	result, err := client.JoinHousehold(ctx, args[0], name)
	if err != nil {
		return describeSyncError(err)
	}

	fmt.Printf("Joined household %q as %s\n", result.Household.Name, result.Member.DisplayName)
	return nil
}

func runHouseholdShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	syncer, err := loadSyncer(ctx)
	if err != nil {
		return err
	}
	defer syncer.Teardown()

	h := syncer.Household()
	if h == nil {
		return fmt.Errorf("no household yet. Run: hearthctl household create <name>")
	}
	fmt.Printf("%s\n", h.Name)
	fmt.Printf("Join code: %s\n", h.JoinCode)
	fmt.Printf("Members:   %d\n", len(syncer.Members()))
	return nil
}

func runHouseholdMembers(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	syncer, err := loadSyncer(ctx)
	if err != nil {
		return err
	}
	defer syncer.Teardown()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tROLE")
	for _, m := range syncer.Members() {
		fmt.Fprintf(w, "%d\t%s\t%s\n", m.ID, m.DisplayName, m.Role)
	}
	return w.Flush()
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	client, _, err := loadClient()
	if err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	entries, err := client.Leaderboard(ctx)
	if err != nil {
		return describeSyncError(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPOINTS\tCOMPLETED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%d\n", e.DisplayName, e.Points, e.Completed)
	}
	return w.Flush()
}
