package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	baseURL string
	token   string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bankcore-cli",
		Short: "BankCore CLI tool",
		Long:  `A command line interface for interacting with the BankCore API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the BankCore API")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("BANKCORE_TOKEN"), "Access token (defaults to BANKCORE_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(customerCommands())
	rootCmd.AddCommand(accountCommands())
	rootCmd.AddCommand(transferCommands())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func customerCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customer",
		Short: "Customer operations",
	}

	var email, password string

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new customer",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, "/api/v1/customers", map[string]string{
				"email":    email,
				"password": password,
			}, "")
		},
	}
	registerCmd.Flags().StringVar(&email, "email", "", "Email address")
	registerCmd.Flags().StringVar(&password, "password", "", "Password")
	registerCmd.MarkFlagRequired("email")
	registerCmd.MarkFlagRequired("password")

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print an access token",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, "/api/v1/customers/login", map[string]string{
				"email":    email,
				"password": password,
			}, "")
		},
	}
	loginCmd.Flags().StringVar(&email, "email", "", "Email address")
	loginCmd.Flags().StringVar(&password, "password", "", "Password")
	loginCmd.MarkFlagRequired("email")
	loginCmd.MarkFlagRequired("password")

	cmd.AddCommand(registerCmd, loginCmd)

	return cmd
}

func accountCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	var currency, amount, reference string

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new account",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, "/api/v1/accounts", map[string]string{
				"currency": currency,
			}, "")
		},
	}
	createCmd.Flags().StringVar(&currency, "currency", "SEK", "Account currency")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your accounts",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, "/api/v1/accounts", nil, "")
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <account-id>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, "/api/v1/accounts/"+args[0], nil, "")
		},
	}

	depositCmd := &cobra.Command{
		Use:   "deposit <account-id>",
		Short: "Deposit money into an account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, "/api/v1/accounts/"+args[0]+"/deposit", moneyBody(amount, currency, reference), "")
		},
	}
	depositCmd.Flags().StringVar(&amount, "amount", "", "Amount, e.g. 100.50")
	depositCmd.Flags().StringVar(&currency, "currency", "SEK", "Currency")
	depositCmd.Flags().StringVar(&reference, "reference", "", "Free-text reference")
	depositCmd.MarkFlagRequired("amount")

	withdrawCmd := &cobra.Command{
		Use:   "withdraw <account-id>",
		Short: "Withdraw money from an account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, "/api/v1/accounts/"+args[0]+"/withdraw", moneyBody(amount, currency, reference), "")
		},
	}
	withdrawCmd.Flags().StringVar(&amount, "amount", "", "Amount, e.g. 100.50")
	withdrawCmd.Flags().StringVar(&currency, "currency", "SEK", "Currency")
	withdrawCmd.Flags().StringVar(&reference, "reference", "", "Free-text reference")
	withdrawCmd.MarkFlagRequired("amount")

	ledgerCmd := &cobra.Command{
		Use:   "ledger <account-id>",
		Short: "Show an account's transaction history",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, "/api/v1/accounts/"+args[0]+"/ledger", nil, "")
		},
	}

	cmd.AddCommand(createCmd, listCmd, getCmd, depositCmd, withdrawCmd, ledgerCmd)

	return cmd
}

func transferCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer operations",
	}

	var from, to, amount, currency, reference, idempotencyKey string

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Move money between accounts",
		Run: func(cmd *cobra.Command, args []string) {
			key := idempotencyKey
			if key == "" {
				key = uuid.NewString()
			}

			body := map[string]any{
				"from_account_id": from,
				"to_account_id":   to,
				"amount":          json.Number(amount),
				"currency":        currency,
			}
			if reference != "" {
				body["reference"] = reference
			}

			doRequest(http.MethodPost, "/api/v1/transfers", body, key)
		},
	}
	createCmd.Flags().StringVar(&from, "from", "", "Source account ID")
	createCmd.Flags().StringVar(&to, "to", "", "Destination account ID")
	createCmd.Flags().StringVar(&amount, "amount", "", "Amount, e.g. 100.50")
	createCmd.Flags().StringVar(&currency, "currency", "SEK", "Currency")
	createCmd.Flags().StringVar(&reference, "reference", "", "Free-text reference")
	createCmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key (random UUID when omitted)")
	createCmd.MarkFlagRequired("from")
	createCmd.MarkFlagRequired("to")
	createCmd.MarkFlagRequired("amount")

	getCmd := &cobra.Command{
		Use:   "get <transfer-id>",
		Short: "Show one transfer",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, "/api/v1/transfers/"+args[0], nil, "")
		},
	}

	cmd.AddCommand(createCmd, getCmd)

	return cmd
}

func moneyBody(amount, currency, reference string) map[string]any {
	body := map[string]any{
		"amount":   json.Number(amount),
		"currency": currency,
	}
	if reference != "" {
		body["reference"] = reference
	}

	return body
}

func doRequest(method, path string, body any, idempotencyKey string) {
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
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, respBody, "", "  "); err != nil {
		pretty.Write(respBody)
	}

	fmt.Printf("Status: %d\n%s\n", resp.StatusCode, pretty.String())

	if resp.StatusCode >= http.StatusBadRequest {
		os.Exit(1)
	}
}
