package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <ticker>",
	Short: "Look up the name and last price for a ticker",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ticker := strings.ToUpper(args[0])
		raw := get("/api/stock/" + ticker)

		if output == "json" {
			fmt.Println(raw)
			return
		}

		var body struct {
			Name  string  `json:"name"`
			Price float64 `json:"price"`
		}
		if err := json.Unmarshal([]byte(raw), &body); err != nil {
			fmt.Fprintf(os.Stderr, "Error: bad response: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s  %s  %.2f ₽\n", ticker, body.Name, body.Price)
	},
}

var dividendCmd = &cobra.Command{
	Use:   "dividend <ticker>",
	Short: "Look up the per-share dividend for a ticker",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ticker := strings.ToUpper(args[0])
		raw := get("/api/dividend/" + ticker)

		if output == "json" {
			fmt.Println(raw)
			return
		}

		var body struct {
			Value float64 `json:"value"`
		}
		if err := json.Unmarshal([]byte(raw), &body); err != nil {
			fmt.Fprintf(os.Stderr, "Error: bad response: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s  %.2f ₽ per share\n", ticker, body.Value)
	},
}

// get performs an authenticated GET and returns the response body.
func get(path string) string {
	resp, err := client().R().Get(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if resp.IsError() {
		fmt.Fprintf(os.Stderr, "Error: server returned %s: %s\n", resp.Status(), resp.String())
		os.Exit(1)
	}
	return resp.String()
}
