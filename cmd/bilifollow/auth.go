package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"bilifollow/pkg/auth"
	"bilifollow/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored Bilibili session cookies",
	Long: `Manage stored Bilibili session cookies.

Cookies are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read only)

Never share your SESSDATA or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store session cookies securely",
	Long: `Store the cookies of a logged-in browser session under a name.

You will be prompted for:
  - SESSDATA (required)
  - bili_jct (optional)
  - DedeUserID (optional, used when the API cannot tell who you are)
  - User Agent (optional, press Enter for default)`,
	Example: `  # Interactive login, stored as "default"
  bilifollow auth login

  # Store a second account
  bilifollow auth login alt`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove stored cookies",
	Long: `Remove stored cookies. Without a name you choose from the stored
accounts.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored accounts with their cookies masked.`,
	Run:   runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	name := "default"
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	reader := bufio.NewReader(os.Stdin)

	auth.ShowQuickExtractGuide(os.Stdout)
	fmt.Print("Ready to enter your cookies? (Y/n/help): ")
	ready, _ := reader.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(ready)) {
	case "n":
		fmt.Println("\nRun 'bilifollow auth login' when you're ready.")
		return
	case "help":
		fmt.Println()
		auth.ShowCookieExtractionGuide(os.Stdout)
	}

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("\n⚠️  Account '%s' already exists. Update cookies? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Println("\n🔐 Enter your cookie values (they will be hidden as you type):")
	fmt.Println()

	var sessdata string
	for {
		fmt.Print("SESSDATA: ")
		sessdata, err = readSecret(reader)
		if err != nil {
			ui.PrintError("Failed to read SESSDATA", err.Error())
			os.Exit(1)
		}
		if len(sessdata) >= 16 {
			break
		}
		fmt.Println("\n❌ That doesn't look like a SESSDATA value.")
		fmt.Println("   It is a long string, usually containing %2C.")
		fmt.Print("\nTry again? (Y/n): ")
		again, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(again)) == "n" {
			os.Exit(1)
		}
	}

	fmt.Print("bili_jct (optional): ")
	biliJCT, err := readSecret(reader)
	if err != nil {
		ui.PrintError("Failed to read bili_jct", err.Error())
		os.Exit(1)
	}

	fmt.Print("DedeUserID (optional): ")
	dedeUserID, _ := reader.ReadString('\n')
	dedeUserID = strings.TrimSpace(dedeUserID)
	if dedeUserID != "" {
		if _, err := strconv.ParseInt(dedeUserID, 10, 64); err != nil {
			ui.PrintError("DedeUserID must be numeric", dedeUserID)
			os.Exit(1)
		}
	}

	fmt.Print("🌐 User Agent (press Enter to use default): ")
	userAgent, _ := reader.ReadString('\n')
	userAgent = strings.TrimSpace(userAgent)

	account := &auth.Account{
		Name:       name,
		SESSDATA:   sessdata,
		BiliJCT:    biliJCT,
		DedeUserID: dedeUserID,
		UserAgent:  userAgent,
	}

	sanitized := auth.SanitizeAccount(account)
	fmt.Println("\n📋 Summary:")
	fmt.Printf("   Name: %s\n", sanitized.Name)
	fmt.Printf("   SESSDATA: %s\n", sanitized.SESSDATA)
	if sanitized.BiliJCT != "" {
		fmt.Printf("   bili_jct: %s\n", sanitized.BiliJCT)
	}
	if sanitized.DedeUserID != "" {
		fmt.Printf("   DedeUserID: %s\n", sanitized.DedeUserID)
	}

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("\nAccount saved: %s", name))
	fmt.Println("\n📖 Export your following list with:")
	fmt.Println("   $ bilifollow export")
	if name != "default" {
		fmt.Printf("   $ bilifollow export --account %s\n", name)
	}
	fmt.Println("\n⚠️  Never share your SESSDATA or config files!")
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	if len(args) > 0 {
		removeAccount(manager, args[0])
		return
	}

	accounts, err := manager.List()
	if err != nil || len(accounts) == 0 {
		ui.PrintError("No stored accounts found")
		return
	}

	fmt.Println("Select account to remove:")
	for i, account := range accounts {
		fmt.Printf("  %d. %s\n", i+1, account.Name)
	}
	fmt.Printf("  0. Cancel\n\n")

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Choice: ")
	input, _ := reader.ReadString('\n')

	choice, err := strconv.Atoi(strings.TrimSpace(input))
	switch {
	case err != nil || choice < 0 || choice > len(accounts):
		ui.PrintError("Invalid choice")
		os.Exit(1)
	case choice == 0:
		return
	default:
		removeAccount(manager, accounts[choice-1].Name)
	}
}

func removeAccount(manager *auth.Manager, name string) {
	if err := manager.Delete(name); err != nil {
		ui.PrintError("Failed to remove account", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Account removed: " + name)
}

func runList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'bilifollow auth login' to add one")
		return
	}

	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. %s\n", i+1, ui.Cyan(sanitized.Name))
		fmt.Printf("   SESSDATA: %s\n", sanitized.SESSDATA)
		if sanitized.BiliJCT != "" {
			fmt.Printf("   bili_jct: %s\n", sanitized.BiliJCT)
		}
		if sanitized.DedeUserID != "" {
			fmt.Printf("   DedeUserID: %s\n", sanitized.DedeUserID)
		}
		if sanitized.UserAgent != "" {
			fmt.Printf("   User Agent: %s\n", sanitized.UserAgent)
		}
		fmt.Printf("   Last Modified: %s\n\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
	}
}

// readSecret reads a value without echo when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
