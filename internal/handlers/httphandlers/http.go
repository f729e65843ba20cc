package httphandlers

import (
	"net/url"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/tokenseikyu/escrow-node/internal/config"
	"github.com/tokenseikyu/escrow-node/internal/escrow"
	"github.com/tokenseikyu/escrow-node/internal/interfaces"
	"github.com/tokenseikyu/escrow-node/internal/ledger"
)

type HTTPHandler struct {
	factory      *escrow.InvoiceFactory
	feed         *escrow.Feed
	ledger       *ledger.Ledger
	operatorAddr common.Address
	publicUrl    *url.URL
	log          interfaces.ILogger
}

func NewHTTPHandler(factory *escrow.InvoiceFactory, feed *escrow.Feed, led *ledger.Ledger, operatorAddr common.Address, publicUrl *url.URL, log interfaces.ILogger) *gin.Engine {
	handl := &HTTPHandler{
		factory:      factory,
		feed:         feed,
		ledger:       led,
		operatorAddr: operatorAddr,
		publicUrl:    publicUrl,
		log:          log,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthcheck", handl.HealthCheck)

	r.POST("/invoices", handl.CreateInvoice)
	r.GET("/invoices", handl.GetInvoices)
	r.GET("/invoices/:address", handl.GetInvoice)
	r.GET("/invoices/:address/events", handl.GetInvoiceEvents)

	r.POST("/invoices/:address/deposit", handl.Deposit)
	r.POST("/invoices/:address/verify", handl.Verify)
	r.POST("/invoices/:address/lock", handl.Lock)
	r.POST("/invoices/:address/release", handl.Release)
	r.POST("/invoices/:address/withdraw", handl.Withdraw)
	r.POST("/invoices/:address/cancel", handl.Cancel)
	r.POST("/invoices/:address/deny", handl.Deny)
	r.POST("/invoices/:address/pay", handl.PayByClient)

	r.GET("/invoice-address", handl.GetInvoiceAddress)
	r.GET("/predict-address", handl.PredictAddress)

	err := r.SetTrustedProxies(nil)
	if err != nil {
		panic(err)
	}

	return r
}

func (h *HTTPHandler) HealthCheck(ctx *gin.Context) {
	ctx.JSON(200, gin.H{
		"status":  "healthy",
		"version": config.BuildVersion,
	})
}
