package httphandlers

import (
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/tokenseikyu/escrow-node/internal/escrow"
	"golang.org/x/exp/slices"
)

func (h *HTTPHandler) CreateInvoice(ctx *gin.Context) {
	client, ok := h.queryAddr(ctx, "client")
	if !ok {
		return
	}
	provider, ok := h.queryAddr(ctx, "provider")
	if !ok {
		return
	}
	token, ok := h.queryAddr(ctx, "token")
	if !ok {
		return
	}
	price, ok := new(big.Int).SetString(ctx.Query("price"), 10)
	if !ok {
		_ = ctx.AbortWithError(http.StatusBadRequest, errors.New("invalid price"))
		return
	}
	terminationUnix, err := strconv.ParseInt(ctx.Query("terminationTime"), 10, 64)
	if err != nil {
		_ = ctx.AbortWithError(http.StatusBadRequest, err)
		return
	}
	details := common.HexToHash(ctx.Query("details"))

	var invoice *escrow.Invoice
	if saltStr := ctx.Query("salt"); saltStr != "" {
		salt := common.HexToHash(saltStr)
		invoice, err = h.factory.CreateDeterministic(client, provider, token, price, time.Unix(terminationUnix, 0), details, salt)
	} else {
		invoice, err = h.factory.Create(client, provider, token, price, time.Unix(terminationUnix, 0), details)
	}
	if err != nil {
		h.abortEscrowError(ctx, err)
		return
	}

	ctx.JSON(200, CreateInvoiceResponse{
		Address: invoice.Address().Hex(),
		Price:   invoice.Price().String(),
	})
}

func (h *HTTPHandler) GetInvoices(ctx *gin.Context) {
	data := []Invoice{}
	h.factory.Range(func(item *escrow.Invoice) bool {
		data = append(data, h.mapInvoice(item))
		return true
	})

	slices.SortStableFunc(data, func(a Invoice, b Invoice) bool {
		return a.Address < b.Address
	})

	ctx.JSON(200, InvoicesResponse{Total: len(data), Invoices: data})
}

func (h *HTTPHandler) GetInvoice(ctx *gin.Context) {
	invoice, ok := h.lookupInvoice(ctx)
	if !ok {
		return
	}
	ctx.JSON(200, h.mapInvoice(invoice))
}

func (h *HTTPHandler) GetInvoiceEvents(ctx *gin.Context) {
	invoice, ok := h.lookupInvoice(ctx)
	if !ok {
		return
	}

	logs := h.feed.History(invoice.Address())
	data := make([]EventLog, len(logs))
	for i, l := range logs {
		data[i] = EventLog{
			Seq:       l.Seq,
			Address:   l.Address.Hex(),
			Topic:     l.Topic.Hex(),
			Timestamp: l.Timestamp,
			Event:     l.Event,
		}
	}
	ctx.JSON(200, data)
}

func (h *HTTPHandler) Deposit(ctx *gin.Context) {
	invoice, ok := h.lookupInvoice(ctx)
	if !ok {
		return
	}
	amount, ok := h.queryAmount(ctx)
	if !ok {
		return
	}

	err := invoice.Deposit(h.caller(ctx), amount)
	if err != nil {
		h.abortEscrowError(ctx, err)
		return
	}
	ctx.JSON(200, gin.H{"status": "ok"})
}

func (h *HTTPHandler) Verify(ctx *gin.Context) {
	invoice, ok := h.lookupInvoice(ctx)
	if !ok {
		return
	}

	err := invoice.Verify(h.caller(ctx))
	if err != nil {
		h.abortEscrowError(ctx, err)
		return
	}
	ctx.JSON(200, gin.H{"status": "ok"})
}

func (h *HTTPHandler) Lock(ctx *gin.Context) {
	invoice, ok := h.lookupInvoice(ctx)
	if !ok {
		return
	}

	err := invoice.Lock(h.caller(ctx))
	if err != nil {
		h.abortEscrowError(ctx, err)
		return
	}
	ctx.JSON(200, gin.H{"status": "ok"})
}

// Release pays the outstanding amount to the provider. With the optional
// `token` query param it routes through the token-sweep variant.
func (h *HTTPHandler) Release(ctx *gin.Context) {
	invoice, ok := h.lookupInvoice(ctx)
	if !ok {
		return
	}

	var err error
	if ctx.Query("token") != "" {
		token, ok := h.queryAddr(ctx, "token")
		if !ok {
			return
		}
		err = invoice.ReleaseTokens(h.caller(ctx), token)
	} else {
		err = invoice.Release(h.caller(ctx))
	}
	if err != nil {
		h.abortEscrowError(ctx, err)
		return
	}
	ctx.JSON(200, gin.H{"status": "ok", "released": invoice.Released().String()})
}

func (h *HTTPHandler) Withdraw(ctx *gin.Context) {
	invoice, ok := h.lookupInvoice(ctx)
	if !ok {
		return
	}

	var err error
	if ctx.Query("token") != "" {
		token, ok := h.queryAddr(ctx, "token")
		if !ok {
			return
		}
		err = invoice.WithdrawTokens(token)
	} else {
		err = invoice.Withdraw()
	}
	if err != nil {
		h.abortEscrowError(ctx, err)
		return
	}
	ctx.JSON(200, gin.H{"status": "ok"})
}

func (h *HTTPHandler) Cancel(ctx *gin.Context) {
	invoice, ok := h.lookupInvoice(ctx)
	if !ok {
		return
	}

	err := invoice.Cancel(h.caller(ctx))
	if err != nil {
		h.abortEscrowError(ctx, err)
		return
	}
	ctx.JSON(200, gin.H{"status": "ok"})
}

func (h *HTTPHandler) Deny(ctx *gin.Context) {
	invoice, ok := h.lookupInvoice(ctx)
	if !ok {
		return
	}

	err := invoice.Deny(h.caller(ctx))
	if err != nil {
		h.abortEscrowError(ctx, err)
		return
	}
	ctx.JSON(200, gin.H{"status": "ok"})
}

func (h *HTTPHandler) PayByClient(ctx *gin.Context) {
	invoice, ok := h.lookupInvoice(ctx)
	if !ok {
		return
	}
	amount, ok := h.queryAmount(ctx)
	if !ok {
		return
	}

	err := invoice.PayByClient(h.caller(ctx), amount)
	if err != nil {
		h.abortEscrowError(ctx, err)
		return
	}
	ctx.JSON(200, gin.H{"status": "ok", "released": invoice.Released().String()})
}

func (h *HTTPHandler) GetInvoiceAddress(ctx *gin.Context) {
	index, err := strconv.ParseUint(ctx.Query("index"), 10, 64)
	if err != nil {
		_ = ctx.AbortWithError(http.StatusBadRequest, err)
		return
	}

	addr, err := h.factory.GetInvoiceAddress(index)
	if err != nil {
		h.abortEscrowError(ctx, err)
		return
	}
	ctx.JSON(200, gin.H{"address": addr.Hex()})
}

func (h *HTTPHandler) PredictAddress(ctx *gin.Context) {
	salt := common.HexToHash(ctx.Query("salt"))
	addr := h.factory.PredictDeterministicAddress(salt)
	ctx.JSON(200, gin.H{"address": addr.Hex()})
}

// helpers

func (h *HTTPHandler) mapInvoice(item *escrow.Invoice) Invoice {
	return Invoice{
		Address:            item.Address().Hex(),
		Client:             item.Client().Hex(),
		Provider:           item.Provider().Hex(),
		Token:              item.Token().Hex(),
		Price:              item.Price().String(),
		TerminationTime:    item.TerminationTime().UTC().Format(time.RFC3339),
		Details:            item.Details().Hex(),
		WrappedNativeToken: item.WrappedNativeToken().Hex(),
		State:              item.State().String(),
		Verified:           item.Verified(),
		Locked:             item.Locked(),
		Canceled:           item.Canceled(),
		Released:           item.Released().String(),
		Balance:            item.Balance().String(),
	}
}

// caller resolves the acting identity: explicit `from` query param or the
// node operator wallet.
func (h *HTTPHandler) caller(ctx *gin.Context) common.Address {
	if from := ctx.Query("from"); from != "" {
		return common.HexToAddress(from)
	}
	return h.operatorAddr
}

func (h *HTTPHandler) lookupInvoice(ctx *gin.Context) (*escrow.Invoice, bool) {
	addrStr := ctx.Param("address")
	if !common.IsHexAddress(addrStr) {
		_ = ctx.AbortWithError(http.StatusBadRequest, errors.New("invalid invoice address"))
		return nil, false
	}

	invoice, err := h.factory.GetInvoice(common.HexToAddress(addrStr))
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return invoice, true
}

func (h *HTTPHandler) queryAddr(ctx *gin.Context, name string) (common.Address, bool) {
	value := ctx.Query(name)
	if !common.IsHexAddress(value) {
		_ = ctx.AbortWithError(http.StatusBadRequest, errors.New("invalid "+name+" address"))
		return common.Address{}, false
	}
	return common.HexToAddress(value), true
}

func (h *HTTPHandler) queryAmount(ctx *gin.Context) (*big.Int, bool) {
	amount, ok := new(big.Int).SetString(ctx.Query("amount"), 10)
	if !ok || amount.Sign() < 0 {
		_ = ctx.AbortWithError(http.StatusBadRequest, errors.New("invalid amount"))
		return nil, false
	}
	return amount, true
}

// abortEscrowError maps guard failures to 409 so callers can tell a rejected
// transition from a malformed request.
func (h *HTTPHandler) abortEscrowError(ctx *gin.Context, err error) {
	if errors.Is(err, escrow.ErrUnknownInvoice) {
		ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	ctx.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
}
