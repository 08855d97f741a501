package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"tagscraper/pkg/auth"
	"tagscraper/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Danbooru credentials",
	Long: `Manage stored Danbooru credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (TAGSCRAPER_USERNAME / TAGSCRAPER_API_KEY)

An API key is only needed for authenticated rate limits; anonymous
scraping works without one.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store Danbooru credentials securely",
	Long: `Store a Danbooru username and API key in the system keychain or an
encrypted file.

You can find your API key on your Danbooru profile page under
"API Key".`,
	Example: `  # Interactive login
  tagscraper auth login

  # Login with username
  tagscraper auth login myusername`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove stored credentials",
	Args:  cobra.MaximumNArgs(1),
	Run:   runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Run:   runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		fmt.Print("Username: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			ui.PrintError("Failed to read username", err.Error())
			os.Exit(1)
		}
		username = strings.TrimSpace(input)
	}

	if username == "" {
		ui.PrintError("Username is required")
		os.Exit(1)
	}

	fmt.Print("API key: ")
	keyBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		ui.PrintError("Failed to read API key", err.Error())
		os.Exit(1)
	}
	apiKey := strings.TrimSpace(string(keyBytes))

	if apiKey == "" {
		ui.PrintError("API key is required")
		os.Exit(1)
	}

	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to open credential store", err.Error())
		os.Exit(1)
	}

	account := &auth.Account{
		Username: username,
		APIKey:   apiKey,
	}
	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Credentials stored for %s", username))
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to open credential store", err.Error())
		os.Exit(1)
	}

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		account, err := manager.RetrieveDefault()
		if err != nil {
			ui.PrintError("No stored credentials found")
			os.Exit(1)
		}
		username = account.Username
	}

	if err := manager.Delete(username); err != nil {
		ui.PrintError("Failed to remove credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Credentials removed for %s", username))
}

func runList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to open credential store", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}

	if len(accounts) == 0 {
		fmt.Println("No stored accounts.")
		return
	}

	for _, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%s  (api key %s, updated %s)\n",
			sanitized.Username,
			sanitized.APIKey,
			sanitized.LastModified.Format("2006-01-02 15:04"))
	}
}
