package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Fato07/knowledge-base/internal/events"
)

var watchCmd = &cobra.Command{
	Use:   "watch [topic]",
	Short: "Tail pipeline events from the bus",
	Long: `Watch subscribes to the notification bus and prints each event as it
arrives. The default topic pattern "kb.>" matches everything; requires
KB_NATS_URL to be set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.NATSURL == "" {
			return fmt.Errorf("no bus configured; set KB_NATS_URL")
		}
		topic := "kb.>"
		if len(args) == 1 {
			topic = args[0]
		}

		sub, err := events.NewNATSSubscriber(cfg.NATSURL)
		if err != nil {
			return err
		}
		defer sub.Close()

		ch, cancel, err := sub.Subscribe(topic)
		if err != nil {
			return err
		}
		defer cancel()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fmt.Fprintf(os.Stderr, "watching %s (ctrl-c to stop)\n", topic)
		for {
			select {
			case <-ctx.Done():
				return nil
			case data, ok := <-ch:
				if !ok {
					return nil
				}
				printBusMessage(data)
			}
		}
	},
}

func printBusMessage(data []byte) {
	if jsonOutput {
		fmt.Println(string(data))
		return
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		fmt.Println(string(data))
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	line := ""
	for _, k := range keys {
		if line != "" {
			line += "  "
		}
		line += fmt.Sprintf("%s=%v", k, fields[k])
	}
	fmt.Println(line)
}
