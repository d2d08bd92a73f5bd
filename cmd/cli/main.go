package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
	token   string
	account string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "atmcore-cli",
		Short: "ATM core CLI tool",
		Long:  `A command line interface for interacting with the ATM core API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the ATM core API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Session token (from login)")
	rootCmd.PersistentFlags().StringVar(&account, "account", "", "Account ID (from login)")

	loginCmd := &cobra.Command{
		Use:   "login <user-id> <pin>",
		Short: "Log in and print a session token",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			body := map[string]string{"user_id": args[0], "pin": args[1]}
			doRequest(http.MethodPost, "/api/v1/login", body)
		},
	}

	depositCmd := &cobra.Command{
		Use:   "deposit <amount>",
		Short: "Deposit into the session account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			body := map[string]string{"amount": args[0]}
			doRequest(http.MethodPost, "/api/v1/accounts/"+account+"/deposit", body)
		},
	}

	withdrawCmd := &cobra.Command{
		Use:   "withdraw <amount>",
		Short: "Withdraw from the session account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			body := map[string]string{"amount": args[0]}
			doRequest(http.MethodPost, "/api/v1/accounts/"+account+"/withdraw", body)
		},
	}

	transferCmd := &cobra.Command{
		Use:   "transfer <recipient-user-id> <amount>",
		Short: "Transfer to another user's account",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			body := map[string]string{"recipient_user_id": args[0], "amount": args[1]}
			doRequest(http.MethodPost, "/api/v1/accounts/"+account+"/transfer", body)
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent transactions for the session account",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, "/api/v1/accounts/"+account+"/transactions", nil)
		},
	}

	rootCmd.AddCommand(loginCmd, depositCmd, withdrawCmd, transferCmd, historyCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func doRequest(method, path string, body any) {
	client := &http.Client{Timeout: timeout}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			fmt.Printf("Failed to encode request: %v\n", err)
			os.Exit(1)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		fmt.Printf("Failed to build request: %v\n", err)
		os.Exit(1)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, respBody, "", "  "); err != nil {
		fmt.Println(string(respBody))
	} else {
		fmt.Println(pretty.String())
	}

	if resp.StatusCode >= http.StatusBadRequest {
		os.Exit(1)
	}
}
