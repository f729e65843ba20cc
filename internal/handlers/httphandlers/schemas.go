package httphandlers

import "time"

type Invoice struct {
	Address            string `json:"address"`
	Client             string `json:"client"`
	Provider           string `json:"provider"`
	Token              string `json:"token"`
	Price              string `json:"price"`
	TerminationTime    string `json:"terminationTime"`
	Details            string `json:"details"`
	WrappedNativeToken string `json:"wrappedNativeToken"`
	State              string `json:"state"`
	Verified           bool   `json:"verified"`
	Locked             bool   `json:"locked"`
	Canceled           bool   `json:"canceled"`
	Released           string `json:"released"`
	Balance            string `json:"balance"`
}

type InvoicesResponse struct {
	Total    int       `json:"total"`
	Invoices []Invoice `json:"invoices"`
}

type EventLog struct {
	Seq       uint64      `json:"seq"`
	Address   string      `json:"address"`
	Topic     string      `json:"topic"`
	Timestamp time.Time   `json:"timestamp"`
	Event     interface{} `json:"event"`
}

type CreateInvoiceResponse struct {
	Address string `json:"address"`
	Price   string `json:"price"`
}
