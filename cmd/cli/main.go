package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var (
	authToken string
	apiURL    = "http://localhost:3000"
	output    = "text" // "text" or "json"
)

var rootCmd = &cobra.Command{
	Use:   "portfel",
	Short: "Portfel CLI - query the portfel server from the terminal",
	Long: `Portfel CLI provides command-line access to the portfel server:
account registration and login, plus quote and dividend lookups.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "Session token (defaults to PORTFEL_TOKEN env var)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", apiURL, "API server URL")
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(dividendCmd)
}

// client builds a resty client carrying the session cookie.
func client() *resty.Client {
	if authToken == "" {
		authToken = os.Getenv("PORTFEL_TOKEN")
	}

	c := resty.New().SetBaseURL(apiURL)
	if authToken != "" {
		c.SetCookie(&http.Cookie{Name: "token", Value: authToken})
	}
	return c
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
