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
	baseURL    string
	adminToken string
	timeout    time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ilpnode-cli",
		Short: "ILP node admin CLI",
		Long:  `A command line interface for administering an ILP connector node.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:7770", "Base URL of the node API")
	rootCmd.PersistentFlags().StringVar(&adminToken, "token", os.Getenv("ILP_ADMIN_TOKEN"), "Admin bearer token")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Account commands
	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}
	accountsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Run: func(cmd *cobra.Command, args []string) {
			request(http.MethodGet, "/accounts", nil)
		},
	})
	accountsCmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Get one account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			request(http.MethodGet, "/accounts/"+args[0], nil)
		},
	})
	accountsCmd.AddCommand(&cobra.Command{
		Use:   "create <json>",
		Short: "Create an account from a JSON document",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			request(http.MethodPost, "/accounts", []byte(args[0]))
		},
	})
	accountsCmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			request(http.MethodDelete, "/accounts/"+args[0], nil)
		},
	})
	accountsCmd.AddCommand(&cobra.Command{
		Use:   "balance <id>",
		Short: "Show an account balance",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			request(http.MethodGet, "/accounts/"+args[0]+"/balance", nil)
		},
	})
	rootCmd.AddCommand(accountsCmd)

	// Routing commands
	routesCmd := &cobra.Command{
		Use:   "routes",
		Short: "Routing table operations",
	}
	routesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the merged routing table",
		Run: func(cmd *cobra.Command, args []string) {
			request(http.MethodGet, "/routes", nil)
		},
	})
	routesCmd.AddCommand(&cobra.Command{
		Use:   "set-static <json>",
		Short: "Replace the static route set from a prefix->account JSON map",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			request(http.MethodPut, "/routes/static", []byte(args[0]))
		},
	})
	rootCmd.AddCommand(routesCmd)

	// Rate commands
	ratesCmd := &cobra.Command{
		Use:   "rates",
		Short: "Exchange rate operations",
	}
	ratesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the current rate table",
		Run: func(cmd *cobra.Command, args []string) {
			request(http.MethodGet, "/rates", nil)
		},
	})
	ratesCmd.AddCommand(&cobra.Command{
		Use:   "set <json>",
		Short: "Replace the rate table from a code->rate JSON map",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			request(http.MethodPut, "/rates", []byte(args[0]))
		},
	})
	rootCmd.AddCommand(ratesCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func request(method, path string, body []byte) {
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequest(method, baseURL+path, bytes.NewReader(body))
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}
	if adminToken != "" {
		req.Header.Set("Authorization", "Bearer "+adminToken)
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(raw))
		os.Exit(1)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(pretty.String())
}
