package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tradeclash/arena/internal/app/frontend"
	"github.com/tradeclash/arena/internal/app/matchmaker"
	"github.com/tradeclash/arena/internal/app/settlement"
	"github.com/tradeclash/arena/internal/db/kv"
	"github.com/tradeclash/arena/internal/db/pubsub"
	"github.com/tradeclash/arena/internal/dlm"
	"github.com/tradeclash/arena/internal/managers/notify"
	"github.com/tradeclash/arena/internal/managers/queue"
	"github.com/tradeclash/arena/internal/managers/ratings"
	"github.com/tradeclash/arena/internal/managers/sessions"
)

var (
	cfgFile string
	// Stop is a function that can be called to stop this cmd
	Stop func()
)

// NewRootCmd instantiates the command line root command
func NewRootCmd() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "arena",
		Short: "trading battle matchmaking and rating service",
		Long:  ``,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Redis
			network := "tcp"
			if viper.GetBool("redis_unix") {
				network = "unix"
			}
			redisOpts := &redis.Options{
				Network: network,
				Addr:    viper.GetString("redis_addr"),
			}
			kvStore := kv.NewRedis("arena", redisOpts)
			sortedSet := kvStore.(kv.SortedSet)
			locker := dlm.NewRedisDLM("arena", redisOpts)

			// Nats
			pubsubClient := pubsub.NewNATS(viper.GetString("nats_addr"))
			notifier := notify.NewNotifier(pubsubClient)

			// Managers
			queueManager := queue.NewManager(kvStore, sortedSet,
				viper.GetInt("initial_range"),
				time.Duration(viper.GetInt("grace_window_ms"))*time.Millisecond)
			sessionsManager := sessions.NewManager(kvStore)
			ratingsManager := ratings.NewManager(kvStore,
				viper.GetInt("default_rating"), viper.GetInt("min_rating"))
			defer func() {
				queueManager.Close()
				notifier.Close()
			}()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			// Services
			matchmakerSvc := matchmaker.NewService(ctx, &matchmaker.Config{
				ScanInterval:      time.Duration(viper.GetInt("scan_interval_ms")) * time.Millisecond,
				ExpansionInterval: time.Duration(viper.GetInt("expansion_interval_ms")) * time.Millisecond,
				ExpansionStep:     viper.GetInt("expansion_step"),
			}, queueManager, sessionsManager, notifier, locker)
			settlementSvc := settlement.NewService(&settlement.Config{
				KFactor: viper.GetInt("elo_k_factor"),
			}, sessionsManager, ratingsManager, notifier)

			if err := matchmakerSvc.Start(); err != nil {
				return err
			}
			defer matchmakerSvc.Stop()

			frontendSvc := frontend.NewService(queueManager, sessionsManager,
				ratingsManager, matchmakerSvc, settlementSvc)
			server := &http.Server{
				Addr:    viper.GetString("http_addr"),
				Handler: cors.Default().Handler(frontendSvc.Router()),
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("service", cmd.Use).Str("addr", server.Addr).Msg("Running")
				errCh <- server.ListenAndServe()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			Stop = func() { sigCh <- syscall.SIGTERM }

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				log.Info().Str("signal", sig.String()).Msg("shutting down")
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return server.Shutdown(shutdownCtx)
		},
	}
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.arena.yaml)")

	rootCmd.Flags().Bool("redis_unix", false, "")
	rootCmd.Flags().String("redis_addr", "localhost:6379", "")
	rootCmd.Flags().String("nats_addr", "nats://localhost:4222", "")
	rootCmd.Flags().String("http_addr", ":8080", "")

	rootCmd.Flags().Int("scan_interval_ms", 5000, "how often the queue is scanned")
	rootCmd.Flags().Int("expansion_interval_ms", 15000, "wait time between range expansions")
	rootCmd.Flags().Int("expansion_step", 50, "rating points added per expansion")
	rootCmd.Flags().Int("elo_k_factor", 32, "elo k factor")
	rootCmd.Flags().Int("min_rating", 100, "rating floor")
	rootCmd.Flags().Int("default_rating", 1200, "rating for new players")
	rootCmd.Flags().Int("initial_range", 100, "half width of a fresh entry's rating range")
	rootCmd.Flags().Int("grace_window_ms", 300000, "how long matched queue entries remain readable")

	viper.BindPFlags(rootCmd.Flags())

	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd := NewRootCmd()
	cobra.CheckErr(rootCmd.Execute())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".arena" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".arena")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
