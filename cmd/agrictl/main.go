// cmd/agrictl — command-line client for the AgriLink API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/agrilink/agrilink/pkg/client"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	apiURL  string
	token   string
	cfgFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "agrictl",
	Short: "AgriLink platform CLI",
	Long: `agrictl is the command-line interface for the AgriLink advisory platform.

It calls the same procedure API the web frontend uses: browsing resources,
forum questions and guidance, and administering users.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.agrilink")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if apiURL == "" {
			apiURL = viper.GetString("api_url")
		}
		if apiURL == "" {
			apiURL = "http://localhost:8080"
		}
		if token == "" {
			token = viper.GetString("token")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.agrilink/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "AgriLink API base URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "session token (default from config)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(resourcesCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(guidanceCmd)
	rootCmd.AddCommand(hashSecretCmd)
	rootCmd.AddCommand(versionCmd)
}

func newClient() *client.Client {
	opts := []client.Option{}
	if token != "" {
		opts = append(opts, client.WithBearerToken(token))
	}
	return client.MustNew(apiURL, opts...)
}

func callCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ── login ────────────────────────────────────────────────────────────────────

var loginSecret string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Exchange the owner secret for a session token",
	Long: `Login exchanges the configured owner bootstrap secret for a session token
and prints it. Store it in ~/.agrilink/config.yaml under "token" to use it
in subsequent commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginSecret == "" {
			return fmt.Errorf("--secret is required")
		}
		ctx, cancel := callCtx()
		defer cancel()

		tok, err := newClient().OwnerToken(ctx, loginSecret)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginSecret, "secret", "", "Owner bootstrap secret")
}

// ── whoami ───────────────────────────────────────────────────────────────────

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account behind the current session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := callCtx()
		defer cancel()

		var me map[string]any
		if err := newClient().Call(ctx, "auth.me", nil, &me); err != nil {
			return err
		}
		if me == nil {
			fmt.Println("not signed in")
			return nil
		}
		return printJSON(me)
	},
}

// ── call ─────────────────────────────────────────────────────────────────────

var callInput string

var callCmd = &cobra.Command{
	Use:   "call <procedure>",
	Short: "Invoke an arbitrary procedure",
	Long: `Call invokes any procedure by name with raw JSON input:

  agrictl call resources.list --input '{"category":"irrigation"}'
  agrictl call admin.setExpertVerification --input '{"userId":7,"status":"verified"}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var input map[string]any
		if callInput != "" {
			if err := json.Unmarshal([]byte(callInput), &input); err != nil {
				return fmt.Errorf("parse --input: %w", err)
			}
		}
		ctx, cancel := callCtx()
		defer cancel()

		var out any
		if err := newClient().Call(ctx, args[0], input, &out); err != nil {
			return err
		}
		return printJSON(out)
	},
}

func init() {
	callCmd.Flags().StringVar(&callInput, "input", "", "Procedure input as a JSON object")
}

// ── users ────────────────────────────────────────────────────────────────────

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List all accounts (admin only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := callCtx()
		defer cancel()

		var list []struct {
			ID     int64   `json:"id"`
			OpenID string  `json:"openId"`
			Name   *string `json:"name"`
			Email  *string `json:"email"`
			Role   string  `json:"role"`
			Active bool    `json:"isActive"`
		}
		if err := newClient().Call(ctx, "admin.getAllUsers", nil, &list); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tOPEN ID\tNAME\tEMAIL\tROLE\tACTIVE")
		for _, u := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\n",
				u.ID, u.OpenID, deref(u.Name), deref(u.Email), u.Role, u.Active)
		}
		return w.Flush()
	},
}

// ── resources ────────────────────────────────────────────────────────────────

var (
	resCategory string
	resLimit    int
)

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "List published knowledge-base resources",
	RunE: func(cmd *cobra.Command, args []string) error {
		input := map[string]any{"limit": resLimit}
		if resCategory != "" {
			input["category"] = resCategory
		}
		ctx, cancel := callCtx()
		defer cancel()

		var list []struct {
			ID       int64   `json:"id"`
			Title    string  `json:"title"`
			Type     string  `json:"resourceType"`
			Category *string `json:"category"`
			Views    int     `json:"viewCount"`
		}
		if err := newClient().Call(ctx, "resources.list", input, &list); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tTYPE\tCATEGORY\tVIEWS")
		for _, r := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", r.ID, r.Title, r.Type, deref(r.Category), r.Views)
		}
		return w.Flush()
	},
}

func init() {
	resourcesCmd.Flags().StringVar(&resCategory, "category", "", "Filter by category")
	resourcesCmd.Flags().IntVar(&resLimit, "limit", 20, "Maximum results")
}

// ── questions ────────────────────────────────────────────────────────────────

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "List community forum questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := callCtx()
		defer cancel()

		var list []struct {
			ID      int64  `json:"id"`
			Title   string `json:"title"`
			Status  string `json:"status"`
			AskedBy int64  `json:"askedBy"`
		}
		if err := newClient().Call(ctx, "forum.questions.list", nil, &list); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tASKED BY")
		for _, q := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", q.ID, q.Title, q.Status, q.AskedBy)
		}
		return w.Flush()
	},
}

// ── guidance ─────────────────────────────────────────────────────────────────

var guidanceCmd = &cobra.Command{
	Use:   "guidance",
	Short: "List published expert guidance",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := callCtx()
		defer cancel()

		var list []struct {
			ID          int64   `json:"id"`
			Title       string  `json:"title"`
			Category    *string `json:"category"`
			PublishedBy int64   `json:"publishedBy"`
		}
		if err := newClient().Call(ctx, "guidance.list", nil, &list); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tEXPERT")
		for _, g := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", g.ID, g.Title, deref(g.Category), g.PublishedBy)
		}
		return w.Flush()
	},
}

// ── hash-secret ──────────────────────────────────────────────────────────────

var hashSecretCmd = &cobra.Command{
	Use:   "hash-secret <secret>",
	Short: "Print the bcrypt hash of an owner secret",
	Long: `Hash-secret produces the bcrypt hash expected by the server's
auth.owner_secret_hash setting.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		fmt.Println(string(hash))
		return nil
	},
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the agrictl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("agrictl", version)
	},
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
