package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/versemark/versemark/internal/utils"
	"github.com/versemark/versemark/pkg/dataset"
	"github.com/versemark/versemark/pkg/index"
	"github.com/versemark/versemark/pkg/storage"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `
	╦  ╦┌─┐┬─┐┌─┐┌─┐┌┬┐┌─┐┬─┐┬┌─
	╚╗╔╝├┤ ├┬┘└─┐├┤ │││├─┤├┬┘├┴┐
	 ╚╝ └─┘┴└─└─┘└─┘┴ ┴┴ ┴┴└─┴ ┴

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "versemark",
	Short: "A scripture reading checklist.",
	Long: LOGO + `versemark turns a list of scripture citations into a book, chapter and verse
checklist, serves it to signed-in readers and remembers what each of them has read.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.versemark.yaml)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in .env, the config file and ENV variables if set.
func initConfig() {
	// A missing .env is fine.
	_ = godotenv.Load(".env")

	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".versemark")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("VERSEMARK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.versemark.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		} else {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	if err := utils.SetLogLevel(levelString); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setDefaults() {
	viper.SetDefault("dataset.path", "citations.json")
	viper.SetDefault("dataset.watch", true)
	viper.SetDefault("db.path", "")
	viper.SetDefault("store.backend", "sqlite")
	viper.SetDefault("store.pebble_path", "")
	viper.SetDefault("server.listen", ":8080")
	viper.SetDefault("server.public_url", "")
	viper.SetDefault("server.session_ttl", "720h")
	viper.SetDefault("server.toggle_rps", 5.0)
	viper.SetDefault("server.toggle_burst", 10)
	viper.SetDefault("links.base_url", "")
	viper.SetDefault("auth.google.client_id", "")
	viper.SetDefault("auth.google.client_secret", "")
	viper.SetDefault("auth.facebook.client_id", "")
	viper.SetDefault("auth.facebook.client_secret", "")
	viper.SetDefault("auth.anonymous", true)
}

// loadCatalog reads the configured dataset.
func loadCatalog() (*dataset.Catalog, error) {
	var opts []index.Option
	if base := viper.GetString("links.base_url"); base != "" {
		opts = append(opts, index.WithLinkBase(base))
	}
	return dataset.NewCatalog(viper.GetString("dataset.path"), utils.Log, opts...)
}

// openDB opens the configured sqlite database, creating its directory.
func openDB() (*storage.DB, error) {
	path, err := utils.GetAbsDBPath(viper.GetString("db.path"))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	return storage.Open(path)
}

// openProgressStore returns the store read markers live in. For the sqlite
// backend that is db itself.
func openProgressStore(db *storage.DB) (storage.ProgressStore, error) {
	switch backend := viper.GetString("store.backend"); backend {
	case "", "sqlite":
		return db, nil
	case "pebble":
		dir := viper.GetString("store.pebble_path")
		if dir == "" {
			dir = strings.TrimSuffix(db.Path(), filepath.Ext(db.Path())) + ".pebble"
		}
		utils.Log.Debugf("Using pebble progress store at %s", dir)
		store, err := storage.OpenPebble(dir)
		if err != nil {
			return nil, fmt.Errorf("opening pebble store %s: %w", dir, err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store.backend %q (want sqlite or pebble)", backend)
	}
}
