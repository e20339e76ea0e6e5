package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cuemby/topicgate/internal/config"
	"github.com/cuemby/topicgate/pkg/api"
	"github.com/cuemby/topicgate/pkg/broker"
	"github.com/cuemby/topicgate/pkg/broker/memory"
	"github.com/cuemby/topicgate/pkg/broker/mqtt"
	"github.com/cuemby/topicgate/pkg/callback"
	"github.com/cuemby/topicgate/pkg/client"
	"github.com/cuemby/topicgate/pkg/log"
	"github.com/cuemby/topicgate/pkg/metrics"
	"github.com/cuemby/topicgate/pkg/registry"
	"github.com/cuemby/topicgate/pkg/topicmanager"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "topicgated",
	Short:   "topicgate - a dynamic pub/sub topic broker",
	Long:    `topicgated allocates and tears down messaging-broker topics on demand, notifying publishers of subscriber lifecycle over gRPC.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"topicgated version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(topicCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the topicgate broker service",
	Long:  `Start the Topic Manager, the configured broker connector, the PubSub RPC server, and the ambient HTTP surface (/health, /ready, /metrics).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		inMemoryBroker, _ := cmd.Flags().GetBool("in-memory-broker")

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %v", err)
		}
		if override, _ := cmd.Flags().GetString("pub-sub-authority"); override != "" {
			cfg.PubSubAuthority = override
		}
		if override, _ := cmd.Flags().GetString("messaging-uri"); override != "" {
			cfg.MessagingURI = override
		}
		if override, _ := cmd.Flags().GetString("metrics-addr"); override != "" {
			cfg.MetricsAddr = override
		}

		fmt.Println("Starting topicgate...")
		fmt.Printf("  PubSub RPC address: %s\n", cfg.PubSubAuthority)
		fmt.Printf("  Broker endpoint:     %s\n", cfg.MessagingURI)
		fmt.Printf("  Metrics address:     %s\n", cfg.MetricsAddr)
		fmt.Println()

		metrics.SetVersion(Version)
		metrics.RegisterComponent("broker", false, "initializing")
		metrics.RegisterComponent("rpc", false, "initializing")

		reg := registry.New()
		cb := callback.New()

		var conn broker.Connector
		if inMemoryBroker {
			conn = memory.New()
		} else {
			conn = mqtt.New(mqtt.Config{
				ServerURL:          cfg.MessagingURI,
				ClientID:           cfg.BrokerClientID,
				ControlTopic:       cfg.BrokerControlTopic,
				NotificationPrefix: cfg.BrokerNotificationPrefix,
			})
		}

		mgr := topicmanager.New(reg, cb, conn)
		mgr.SetDeletionPayload(cfg.TopicDeletionMessage)
		mgr.SetSweepParams(cfg.CleanupInterval(), cfg.StaleThreshold())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		brokerErrCh := make(chan error, 1)
		go func() {
			if err := conn.Start(ctx, mgr.Events()); err != nil {
				brokerErrCh <- fmt.Errorf("broker connector error: %v", err)
			}
		}()
		go mgr.Run(ctx)
		metrics.RegisterComponent("broker", true, "connected")
		fmt.Println("✓ Topic manager and broker connector started")

		collector := metrics.NewCollector(reg)
		collector.Start()
		fmt.Println("✓ Metrics collector started")

		healthSrv := api.NewHealthServer(brokerHostPort(cfg.MessagingURI))
		healthSrv.RunChecks()
		go func() {
			if err := healthSrv.Start(cfg.MetricsAddr); err != nil {
				fmt.Printf("ambient HTTP server error: %v\n", err)
			}
		}()
		fmt.Printf("✓ Ambient HTTP surface: http://%s/{health,ready,metrics}\n", cfg.MetricsAddr)

		rpcServer := api.NewServer(mgr, cfg)
		lis, err := net.Listen("tcp", cfg.PubSubAuthority)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %v", cfg.PubSubAuthority, err)
		}
		rpcErrCh := make(chan error, 1)
		go func() {
			if err := rpcServer.Serve(lis); err != nil {
				rpcErrCh <- fmt.Errorf("pubsub rpc server error: %v", err)
			}
		}()
		metrics.RegisterComponent("rpc", true, "ready")
		fmt.Printf("✓ PubSub RPC server listening on %s\n", cfg.PubSubAuthority)
		fmt.Println()
		fmt.Println("topicgate is running. Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			fmt.Println("\nShutting down...")
		case err := <-brokerErrCh:
			fmt.Fprintf(os.Stderr, "\n%v\n", err)
		case err := <-rpcErrCh:
			fmt.Fprintf(os.Stderr, "\n%v\n", err)
		}

		cancel()
		healthSrv.Stop()
		collector.Stop()
		rpcServer.Stop()

		fmt.Println("✓ Shutdown complete")
		return nil
	},
}

// brokerHostPort strips the scheme from a broker URI ("mqtt://host:1883")
// so it can be dialed as a plain TCP address for readiness checks.
func brokerHostPort(uri string) string {
	const mqttScheme = "mqtt://"
	if len(uri) > len(mqttScheme) && uri[:len(mqttScheme)] == mqttScheme {
		return uri[len(mqttScheme):]
	}
	return uri
}

func init() {
	serveCmd.Flags().String("config", "./config/topicgate.yaml", "Path to YAML config file")
	serveCmd.Flags().String("pub-sub-authority", "", "Override the PubSub RPC bind address")
	serveCmd.Flags().String("messaging-uri", "", "Override the broker endpoint URI")
	serveCmd.Flags().String("metrics-addr", "", "Override the ambient HTTP surface address")
	serveCmd.Flags().Bool("in-memory-broker", false, "Use the in-memory broker connector instead of MQTT (local development only)")
}

// Ops CLI: "topic create-topic" / "topic delete-topic".
var topicCmd = &cobra.Command{
	Use:   "topic",
	Short: "Operate on topics via the PubSub RPC service",
}

var topicCreateCmd = &cobra.Command{
	Use:   "create-topic",
	Short: "Allocate a new topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("rpc-addr")
		publisherID, _ := cmd.Flags().GetString("publisher-id")
		managementCallback, _ := cmd.Flags().GetString("management-callback")

		c, err := client.NewClient(addr)
		if err != nil {
			return fmt.Errorf("failed to connect: %v", err)
		}
		defer c.Close()

		resp, err := c.CreateTopic(publisherID, managementCallback)
		if err != nil {
			return fmt.Errorf("failed to create topic: %v", err)
		}

		fmt.Printf("✓ Topic created: %s\n", resp.GeneratedTopic)
		fmt.Printf("  Broker URI:      %s\n", resp.BrokerURI)
		fmt.Printf("  Broker protocol: %s\n", resp.BrokerProtocol)
		return nil
	},
}

var topicDeleteCmd = &cobra.Command{
	Use:   "delete-topic TOPIC",
	Short: "Mark a topic for deletion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("rpc-addr")

		c, err := client.NewClient(addr)
		if err != nil {
			return fmt.Errorf("failed to connect: %v", err)
		}
		defer c.Close()

		if err := c.DeleteTopic(args[0]); err != nil {
			return fmt.Errorf("failed to delete topic: %v", err)
		}

		fmt.Printf("✓ Topic marked for deletion: %s\n", args[0])
		return nil
	},
}

func init() {
	topicCmd.AddCommand(topicCreateCmd)
	topicCmd.AddCommand(topicDeleteCmd)

	for _, cmd := range []*cobra.Command{topicCreateCmd, topicDeleteCmd} {
		cmd.Flags().String("rpc-addr", "127.0.0.1:50051", "PubSub RPC server address")
	}
	topicCreateCmd.Flags().String("publisher-id", "", "Publisher identity owning the new topic (required)")
	topicCreateCmd.Flags().String("management-callback", "", "gRPC address the publisher's ManageTopic callback listens on (required)")
	topicCreateCmd.MarkFlagRequired("publisher-id")
	topicCreateCmd.MarkFlagRequired("management-callback")
}
