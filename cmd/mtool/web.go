package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Studio-Todos/mtool/internal/webstatus"

	"github.com/spf13/cobra"
)

var webTimeout time.Duration

// webCmd groups the web probing subcommands.
var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Web tools: check site and port status",
}

var webStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether a site or port is reachable",
}

// webCheckCmd probes a URL with an HTTP GET.
var webCheckCmd = &cobra.Command{
	Use:   "check <url>",
	Short: "Check whether a website is online",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWebCheck(args[0])
	},
}

// webPortCmd probes a TCP port.
var webPortCmd = &cobra.Command{
	Use:   "port <host> <port>",
	Short: "Check whether a TCP port is open",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := strconv.Atoi(args[1])
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("invalid port: %s", args[1])
		}
		return runWebPort(args[0], port)
	},
}

func init() {
	webStatusCmd.PersistentFlags().DurationVar(&webTimeout, "timeout", 10*time.Second, "probe timeout")

	webStatusCmd.AddCommand(webCheckCmd)
	webStatusCmd.AddCommand(webPortCmd)
	webCmd.AddCommand(webStatusCmd)
	rootCmd.AddCommand(webCmd)
}

func runWebCheck(url string) error {
	res, err := webstatus.Check(context.Background(), url, webTimeout)
	if err != nil {
		fmt.Printf("%s is unreachable: %v\n", webstatus.NormalizeURL(url), err)
		return nil
	}

	state := "offline"
	if res.Online {
		state = "online"
	}
	fmt.Printf("%s is %s (%s, %s)\n", res.URL, state, res.Status, res.ResponseTime.Round(time.Millisecond))
	return nil
}

func runWebPort(host string, port int) error {
	res := webstatus.CheckPort(host, port, webTimeout)
	if res.Open {
		fmt.Printf("%s:%d is open (%s)\n", res.Host, res.Port, res.ResponseTime.Round(time.Millisecond))
	} else {
		fmt.Printf("%s:%d is closed or unreachable\n", res.Host, res.Port)
	}
	return nil
}
