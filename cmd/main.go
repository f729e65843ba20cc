package main

import (
	"context"
	"errors"
	"math/big"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/tokenseikyu/escrow-node/internal/config"
	"github.com/tokenseikyu/escrow-node/internal/escrow"
	"github.com/tokenseikyu/escrow-node/internal/handlers/httphandlers"
	"github.com/tokenseikyu/escrow-node/internal/interfaces"
	"github.com/tokenseikyu/escrow-node/internal/ledger"
	"github.com/tokenseikyu/escrow-node/internal/lib"
	"github.com/tokenseikyu/escrow-node/internal/wallet"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	err := config.LoadConfig(&cfg, &os.Args)
	if err != nil {
		panic(err)
	}
	cfg.SetDefaults()

	log, err := newLogger(&cfg, cfg.Log.LevelApp, "app.log")
	if err != nil {
		panic(err)
	}
	escrowLog, err := newLogger(&cfg, cfg.Log.LevelEscrow, "escrow.log")
	if err != nil {
		panic(err)
	}
	httpLog, err := newLogger(&cfg, cfg.Log.LevelHTTP, "http.log")
	if err != nil {
		panic(err)
	}

	defer func() {
		_ = log.Sync()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-shutdownChan
		log.Warnf("Received signal: %s", s)
		cancel()

		s = <-shutdownChan
		log.Warnf("Received signal: %s. Forcing exit...", s)
		os.Exit(1)
	}()

	operatorWallet, err := newWallet(&cfg)
	if err != nil {
		log.Fatalf("cannot create operator wallet: %s", err)
	}
	operatorAddr := operatorWallet.GetAccountAddress()
	log.Infof("operator address: %s", operatorAddr.Hex())

	clock := lib.SystemClock{}
	led := ledger.NewLedger(escrowLog.Named("LEDGER"))

	wrappedAddr := addrOrRandom(cfg.Escrow.WrappedNativeToken)
	wrappedNative := ledger.NewWrappedNativeToken(wrappedAddr, led)
	log.Infof("wrapped native token: %s", wrappedAddr.Hex())

	feed := escrow.NewFeed(cfg.Escrow.EventHistorySize, escrowLog.Named("FEED"))

	// the shared implementation template is neutralized right away so it can
	// never be driven as a live instance
	implementation := escrow.NewInvoice(lib.GetRandomAddr(), cfg.Escrow.MaxDuration, led, wrappedNative, clock, feed, escrowLog.Named("IMPLEMENTATION"))
	err = implementation.InitLock()
	if err != nil {
		log.Fatalf("cannot lock implementation: %s", err)
	}

	factoryAddr := addrOrRandom(cfg.Escrow.FactoryAddress)
	factory, err := escrow.NewInvoiceFactory(
		factoryAddr,
		implementation,
		wrappedNative,
		cfg.Escrow.RequireVerification,
		cfg.Escrow.MaxDuration,
		led,
		clock,
		feed,
		escrowLog.Named("FACTORY"),
	)
	if err != nil {
		log.Fatalf("cannot create invoice factory: %s", err)
	}
	log.Infof("invoice factory: %s", factoryAddr.Hex())

	if cfg.Environment == "development" {
		// seed the operator so native deposits work out of the box
		led.CreditNative(operatorAddr, big.NewInt(1e18))
	}

	publicUrl, err := url.Parse(cfg.Web.PublicUrl)
	if err != nil {
		log.Fatalf("invalid public url: %s", err)
	}

	handl := httphandlers.NewHTTPHandler(factory, feed, led, operatorAddr, publicUrl, httpLog)

	server := &http.Server{
		Addr:    cfg.Web.Address,
		Handler: handl,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, errCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("http server is listening: %s", cfg.Web.Address)
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-errCtx.Done()
		return server.Shutdown(context.Background())
	})

	g.Go(func() error {
		sub := feed.Subscribe()
		defer sub.Unsubscribe()
		for {
			select {
			case <-errCtx.Done():
				return nil
			case event := <-sub.Events():
				log.Debugf("event seq %d emitter %s topic %s", event.Seq, event.Address.Hex(), event.Topic.Hex())
			case err := <-sub.Err():
				return err
			}
		}
	})

	err = g.Wait()
	if err != nil {
		log.Errorf("node stopped: %s", err)
		return
	}
	log.Info("node stopped")
}

func newLogger(cfg *config.Config, level string, filename string) (interfaces.ILogger, error) {
	logPath := ""
	if cfg.Log.FolderPath != "" {
		logPath = filepath.Join(cfg.Log.FolderPath, filename)
	}
	return lib.NewLogger(level, cfg.Log.Color, cfg.Log.IsProd, cfg.Log.JSON, logPath)
}

func newWallet(cfg *config.Config) (*wallet.EthereumWallet, error) {
	if cfg.Wallet.PrivateKey != "" {
		return wallet.NewEthereumWalletFromPrivateKey(cfg.Wallet.PrivateKey)
	}
	return wallet.NewEthereumWalletFromMnemonic(cfg.Wallet.Mnemonic, cfg.Wallet.AccountIndex)
}

func addrOrRandom(hex string) common.Address {
	if hex == "" {
		return lib.GetRandomAddr()
	}
	return common.HexToAddress(hex)
}
