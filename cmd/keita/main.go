// Package main provides the Keita storefront CLI entry point.
// Run without arguments to start the interactive shop interface.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"keita/cmd/keita/ui"
	"keita/internal/api"
	"keita/internal/config"
	"keita/internal/logging"
	"keita/internal/session"
)

var (
	// Global flags
	verbose   bool
	apiURL    string
	themeName string

	// Logger; the TUI owns the terminal so all logging goes to a file.
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "keita",
	Short: "Keita - souvenir shop storefront",
	Long: `Keita is the terminal storefront for the Keita souvenir shop.

Run without arguments to browse the catalog interactively: add items to your
cart, place orders, and (for shop admins) manage the product listing.

Subcommands cover scripted use: sign in, inspect the session, and list
products without entering the interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logPath, err := config.LogFile()
		if err != nil {
			return fmt.Errorf("resolving log path: %w", err)
		}
		logger, err = logging.New(logPath, verbose)
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStorefront()
	},
}

// loginCmd authenticates and stores the session token.
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Sign in and persist the session token",
	Long: `Authenticates against the shop and stores the returned token under
the config directory. The password is read from the KEITA_PASSWORD
environment variable, or prompted on stdin when unset.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

// registerCmd creates an account and stores the session token.
var registerCmd = &cobra.Command{
	Use:   "register [username]",
	Short: "Create an account and persist the session token",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegister,
}

// logoutCmd discards the stored session.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session token",
	RunE:  runLogout,
}

// whoamiCmd prints the current identity.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user and roles",
	RunE:  runWhoami,
}

// productsCmd lists the catalog without starting the interface.
var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List the product catalog",
	RunE:  runProducts,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "override the shop API base URL")
	rootCmd.PersistentFlags().StringVar(&themeName, "theme", "", "color theme (light or dark)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(productsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildRuntime loads configuration, restores the session, and wires the API
// client every command shares.
func buildRuntime() (config.Config, *session.Store, *api.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if themeName != "" {
		cfg.Theme = themeName
	}

	credPath, err := config.CredentialFile()
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("resolving credential path: %w", err)
	}
	store := session.NewStore(credPath, logger.Named("session"))
	if err := store.Restore(); err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("restoring session: %w", err)
	}

	client := api.NewClient(cfg.APIURL, store, logger.Named("api"))
	client.SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)
	return cfg, store, client, nil
}

func runStorefront() error {
	cfg, store, client, err := buildRuntime()
	if err != nil {
		return err
	}

	logger.Info("starting storefront",
		zap.String("api_url", cfg.APIURL),
		zap.Bool("authenticated", store.Identity().Authenticated))

	p := tea.NewProgram(newAppModel(cfg, client, store, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running interface: %w", err)
	}
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	return authenticateCLI(cmd.Context(), args[0], false)
}

func runRegister(cmd *cobra.Command, args []string) error {
	return authenticateCLI(cmd.Context(), args[0], true)
}

func authenticateCLI(ctx context.Context, username string, register bool) error {
	_, store, client, err := buildRuntime()
	if err != nil {
		return err
	}

	password := os.Getenv("KEITA_PASSWORD")
	if password == "" {
		fmt.Print("Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return fmt.Errorf("a password is required")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	var token string
	if register {
		token, err = client.Register(ctx, username, password)
	} else {
		token, err = client.Login(ctx, username, password)
	}
	if err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}
	if err := store.SetToken(token); err != nil {
		return fmt.Errorf("persisting token: %w", err)
	}

	fmt.Printf("Signed in as %s\n", store.Identity().Subject)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	_, store, _, err := buildRuntime()
	if err != nil {
		return err
	}
	if !store.Identity().Authenticated {
		fmt.Println("Not signed in.")
		return nil
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	fmt.Println("Signed out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	_, store, _, err := buildRuntime()
	if err != nil {
		return err
	}

	id := store.Identity()
	if !id.Authenticated {
		fmt.Println("Not signed in.")
		return nil
	}
	if id.Subject == "" {
		fmt.Println("Signed in (token payload not readable).")
		return nil
	}
	fmt.Printf("%s\n", id.Subject)
	if len(id.Roles) > 0 {
		fmt.Printf("Roles: %s\n", strings.Join(id.Roles, ", "))
	}
	return nil
}

func runProducts(cmd *cobra.Command, args []string) error {
	cfg, _, client, err := buildRuntime()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	products, err := client.Products(ctx)
	if err != nil {
		return fmt.Errorf("fetching products: %w", err)
	}
	if len(products) == 0 {
		fmt.Println("The shop is empty right now.")
		return nil
	}

	table := ui.NewSimpleTable("", []string{"#", "Name", "Price", "Stock"})
	for _, p := range products {
		table.AddRow(
			fmt.Sprintf("%d", p.ID),
			p.Name,
			fmt.Sprintf("$%.2f", p.Price),
			fmt.Sprintf("%d", p.Stock),
		)
	}
	fmt.Print(table.View(ui.NewStyles(ui.ThemeByName(cfg.Theme))))
	return nil
}
