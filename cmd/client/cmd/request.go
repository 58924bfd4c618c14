package cmd

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/waterviewsrl/IronDomo/mdp"
)

var requestCmd = &cobra.Command{
	Use:   "request <service> [arg...]",
	Short: "Send a request to a named service and print the reply",
	Args:  cobra.MinimumNArgs(1),
	Run:   runRequest,
}

var mmiCmd = &cobra.Command{
	Use:   "mmi [mmi.service|mmi.services|mmi.workers] [arg...]",
	Short: "Query the broker's management service",
	Args:  cobra.MinimumNArgs(1),
	Run:   runRequest,
}

func runRequest(_ *cobra.Command, args []string) {
	service := args[0]
	body := args[1:]

	client, err := mdp.NewClient(endpoint, nil, "")
	if err != nil {
		log.WithError(err).Fatal("failed to connect to broker")
	}
	defer client.Close()

	if d, err := time.ParseDuration(timeout); err == nil {
		client.Timeout = d
	}

	reply, err := client.Send(service, body)
	if err != nil {
		log.WithError(err).Fatal("request failed")
	}

	for _, part := range reply {
		fmt.Println(part)
	}
}
