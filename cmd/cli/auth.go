package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Account registration and login",
}

var registerCmd = &cobra.Command{
	Use:   "register <username> <password>",
	Short: "Create an account and print its session token",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		login("/api/register", args[0], args[1])
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <username> <password>",
	Short: "Log in and print a session token",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		login("/api/login", args[0], args[1])
	},
}

func init() {
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(loginCmd)
}

// login posts credentials and prints the session cookie the server set.
func login(path, username, password string) {
	resp, err := client().R().
		SetBody(map[string]string{"username": username, "password": password}).
		Post(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if resp.IsError() {
		fmt.Fprintf(os.Stderr, "Error: server returned %s: %s\n", resp.Status(), resp.String())
		os.Exit(1)
	}

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "token" {
			fmt.Println(cookie.Value)
			fmt.Fprintln(os.Stderr, "Export it: export PORTFEL_TOKEN=<token>")
			return
		}
	}
	fmt.Fprintln(os.Stderr, "Error: no session cookie in response")
	os.Exit(1)
}
