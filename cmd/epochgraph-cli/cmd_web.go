package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newWebCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "web",
		Short: "Manage webs and accounts",
	}
	cmd.AddCommand(webCreateCmd())
	cmd.AddCommand(webGetCmd())
	cmd.AddCommand(accountCreateCmd())
	return cmd
}

func webCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <shortname>",
		Short: "Register a web",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			web, err := apiClient.Webs.Create(context.Background(), args[0])
			if err != nil {
				fatal("create web", err)
			}
			output(web, web.WebID)
		},
	}
}

func webGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <shortname>",
		Short: "Get a web by shortname",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			web, err := apiClient.Webs.Get(context.Background(), args[0])
			if err != nil {
				fatal("get web", err)
			}
			output(web, web.WebID)
		},
	}
}

func accountCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-account <web-id>",
		Short: "Register an account in a web",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			account, err := apiClient.Webs.CreateAccount(context.Background(), args[0])
			if err != nil {
				fatal("create account", err)
			}
			output(account, account.AccountID)
		},
	}
}
