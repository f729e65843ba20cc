package config

import (
	"time"
)

const BuildVersion = "0.1.0"

// Validation tags described here: https://pkg.go.dev/github.com/go-playground/validator/v10
type Config struct {
	Environment string `env:"ENVIRONMENT" flag:"environment" validate:"omitempty,oneof=development production"`
	Escrow      struct {
		FactoryAddress      string        `env:"FACTORY_ADDRESS"       flag:"factory-address"       validate:"omitempty,eth_addr" desc:"address of the invoice factory, random when empty"`
		WrappedNativeToken  string        `env:"WRAPPED_NATIVE_TOKEN"  flag:"wrapped-native-token"  validate:"omitempty,eth_addr" desc:"address of the wrapped native token, random when empty"`
		MaxDuration         time.Duration `env:"ESCROW_MAX_DURATION"   flag:"escrow-max-duration"   validate:"omitempty"          desc:"maximum allowed window between creation and termination time"`
		RequireVerification bool          `env:"REQUIRE_VERIFICATION"  flag:"require-verification"  desc:"new invoices wait for an explicit client verification"`
		EventHistorySize    int           `env:"EVENT_HISTORY_SIZE"    flag:"event-history-size"    validate:"omitempty,number"   desc:"number of events kept in the feed ring buffer"`
	}
	Wallet struct {
		Mnemonic     string `env:"WALLET_MNEMONIC"    flag:"wallet-mnemonic"    validate:"required_without=PrivateKey"`
		AccountIndex int    `env:"ACCOUNT_INDEX"      flag:"account-index"      validate:"omitempty,number"`
		PrivateKey   string `env:"WALLET_PRIVATE_KEY" flag:"wallet-private-key" validate:"required_without=Mnemonic"`
	}
	Log struct {
		Color       bool   `env:"LOG_COLOR"        flag:"log-color"`
		FolderPath  string `env:"LOG_FOLDER_PATH"  flag:"log-folder-path" validate:"omitempty,dirpath" desc:"enables file logging and sets the folder path"`
		IsProd      bool   `env:"LOG_IS_PROD"      flag:"log-is-prod"     desc:"affects the format of the log output"`
		JSON        bool   `env:"LOG_JSON"         flag:"log-json"`
		LevelApp    string `env:"LOG_LEVEL_APP"    flag:"log-level-app"    validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
		LevelHTTP   string `env:"LOG_LEVEL_HTTP"   flag:"log-level-http"   validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
		LevelEscrow string `env:"LOG_LEVEL_ESCROW" flag:"log-level-escrow" validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
	}
	Web struct {
		Address   string `env:"WEB_ADDRESS"    flag:"web-address"    validate:"required,hostname_port" desc:"http server address host:port"`
		PublicUrl string `env:"WEB_PUBLIC_URL" flag:"web-public-url" validate:"omitempty,url"          desc:"public url of the node, falls back to web-address if empty"`
	}
}

func (cfg *Config) SetDefaults() {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// Escrow
	if cfg.Escrow.MaxDuration == 0 {
		cfg.Escrow.MaxDuration = 63113904 * time.Second
	}
	if cfg.Escrow.EventHistorySize == 0 {
		cfg.Escrow.EventHistorySize = 1024
	}

	// Log
	if cfg.Log.LevelApp == "" {
		cfg.Log.LevelApp = "debug"
	}
	if cfg.Log.LevelHTTP == "" {
		cfg.Log.LevelHTTP = "info"
	}
	if cfg.Log.LevelEscrow == "" {
		cfg.Log.LevelEscrow = "debug"
	}

	// Web
	if cfg.Web.Address == "" {
		cfg.Web.Address = "0.0.0.0:8080"
	}
	if cfg.Web.PublicUrl == "" {
		cfg.Web.PublicUrl = "http://" + cfg.Web.Address
	}
}
