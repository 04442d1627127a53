package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/versemark/versemark/internal/auth"
	"github.com/versemark/versemark/internal/server"
	"github.com/versemark/versemark/internal/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the checklist web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			viper.Set("server.listen", listen)
		}
		if path, _ := cmd.Flags().GetString("dataset"); path != "" {
			viper.Set("dataset.path", path)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		catalog, err := loadCatalog()
		if err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		if n, err := db.PurgeExpiredSessions(ctx); err != nil {
			utils.Log.Warnf("Could not purge expired sessions: %v", err)
		} else if n > 0 {
			utils.Log.Infof("Purged %d expired sessions", n)
		}

		progress, err := openProgressStore(db)
		if err != nil {
			return err
		}
		if progress != db {
			defer progress.Close()
		}

		registry, err := auth.NewRegistry(auth.Config{
			PublicURL: viper.GetString("server.public_url"),
			Google: auth.Credentials{
				ClientID:     viper.GetString("auth.google.client_id"),
				ClientSecret: viper.GetString("auth.google.client_secret"),
			},
			Facebook: auth.Credentials{
				ClientID:     viper.GetString("auth.facebook.client_id"),
				ClientSecret: viper.GetString("auth.facebook.client_secret"),
			},
			Anonymous: viper.GetBool("auth.anonymous"),
		})
		if err != nil {
			return err
		}
		if len(registry.Enabled()) == 0 {
			utils.Log.Warn("No sign-in providers are enabled; nobody will be able to log in.")
		}

		srv, err := server.New(server.Config{
			PublicURL:   viper.GetString("server.public_url"),
			SessionTTL:  viper.GetDuration("server.session_ttl"),
			ToggleRPS:   viper.GetFloat64("server.toggle_rps"),
			ToggleBurst: viper.GetInt("server.toggle_burst"),
		}, catalog, db, progress, registry, utils.Log)
		if err != nil {
			return err
		}
		defer srv.Close()

		if viper.GetBool("dataset.watch") {
			go func() {
				if err := catalog.Watch(ctx); err != nil && ctx.Err() == nil {
					utils.Log.Errorf("Dataset watcher stopped: %v", err)
				}
			}()
		}

		return srv.Start(ctx, viper.GetString("server.listen"))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "HTTP listen address (overrides server.listen)")
	serveCmd.Flags().String("dataset", "", "Citation dataset (overrides dataset.path)")
}

