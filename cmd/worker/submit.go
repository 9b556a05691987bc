package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/citizen-portaal/portaal-backend/client"
	"github.com/spf13/cobra"
)

func submitCmd() *cobra.Command {
	var (
		apiURL   string
		token    string
		in       client.ProjectInput
		location string
		radius   int
		interval time.Duration
		ceiling  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "submit <projectnaam>",
		Short: "Create a project through the API and wait for its analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("PORTAAL_TOKEN")
			}
			if token == "" {
				return fmt.Errorf("--token or PORTAAL_TOKEN required")
			}

			in.Name = strings.TrimSpace(args[0])
			if location != "" {
				in.Location = &location
			}
			if cmd.Flags().Changed("radius") {
				in.RadiusMeters = &radius
			}

			c := client.New(client.Options{BaseURL: apiURL, Token: client.StaticToken(token)})
			poller := client.NewPoller(c)
			poller.Interval = interval
			poller.Ceiling = ceiling

			out := cmd.OutOrStdout()
			session := client.NewSession(c, poller)
			session.OnPhase = func(p client.Phase) {
				fmt.Fprintf(out, "%s %s\n", time.Now().Format(time.TimeOnly), p)
			}

			id, err := session.Run(cmd.Context(), in)
			if id != "" {
				fmt.Fprintln(out, "project", id)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&apiURL, "api", "http://localhost:8080/api", "portal API root")
	cmd.Flags().StringVar(&token, "token", "", "bearer token (defaults to $PORTAAL_TOKEN)")
	cmd.Flags().StringVar(&location, "locatie", "", "project location")
	cmd.Flags().IntVar(&radius, "radius", 0, "impact radius in meters")
	cmd.Flags().DurationVar(&interval, "interval", client.DefaultPollInterval, "poll interval")
	cmd.Flags().DurationVar(&ceiling, "ceiling", client.DefaultCeiling, "give up after this long")
	return cmd
}
