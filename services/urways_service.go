package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/drinkmates/aqualine-api/config"
	"github.com/drinkmates/aqualine-api/models"
	"github.com/drinkmates/aqualine-api/utils"
)

const (
	urwaysCurrency   = "SAR"
	urwaysCountry    = "SA"
	urwaysActionSale = "1"
	urwaysSuccess    = "000"
)

var (
	ErrPaymentNotConfigured = errors.New("URWAYS payment gateway is not configured")
	ErrInvalidPaymentHash   = errors.New("payment callback hash mismatch")
	ErrPaymentRejected      = errors.New("payment gateway rejected the request")
)

// PaymentGateway starts and verifies card payments for orders
type PaymentGateway interface {
	InitiatePayment(ctx context.Context, order *models.CO2Order, customerEmail, clientIP string) (*PaymentSession, error)
	VerifyCallback(cb PaymentCallback) (*PaymentOutcome, error)
}

// PaymentSession is where the customer must be sent to pay
type PaymentSession struct {
	PaymentID   string `json:"payment_id"`
	RedirectURL string `json:"redirect_url"`
}

// PaymentCallback holds the query parameters URWAYS appends to the return URL
type PaymentCallback struct {
	PaymentID    string `form:"PaymentId"`
	TranID       string `form:"TranId"`
	TrackID      string `form:"TrackId"`
	Result       string `form:"Result"`
	ResponseCode string `form:"ResponseCode"`
	Amount       string `form:"amount"`
	ResponseHash string `form:"responseHash"`
}

// PaymentOutcome is a verified callback
type PaymentOutcome struct {
	OrderNumber   string
	TransactionID string
	Status        models.PaymentStatus
	ResponseCode  string
	// Amount is the signed amount the gateway charged
	Amount string
}

type urwaysRequest struct {
	TrackID       string `json:"trackid"`
	TerminalID    string `json:"terminalId"`
	CustomerEmail string `json:"customerEmail"`
	Action        string `json:"action"`
	MerchantIP    string `json:"merchantIp"`
	Password      string `json:"password"`
	Currency      string `json:"currency"`
	Country       string `json:"country"`
	Amount        string `json:"amount"`
	RequestHash   string `json:"requestHash"`
	UDF1          string `json:"udf1"`
	UDF2          string `json:"udf2"`
}

type urwaysResponse struct {
	PayID        string `json:"payid"`
	TargetURL    string `json:"targetUrl"`
	Result       string `json:"result"`
	ResponseCode string `json:"responseCode"`
}

// URWAYSService talks to the URWAYS hosted payment page API
type URWAYSService struct {
	baseURL     string
	terminalID  string
	password    string
	merchantKey string
	callbackURL string
	httpClient  *http.Client
}

var paymentGatewayInstance PaymentGateway

// NewURWAYSService creates a client from the URWAYS_* settings
func NewURWAYSService(cfg *config.Config) *URWAYSService {
	return &URWAYSService{
		baseURL:     strings.TrimRight(cfg.URWAYSBaseURL, "/"),
		terminalID:  cfg.URWAYSTerminalID,
		password:    cfg.URWAYSPassword,
		merchantKey: cfg.URWAYSMerchantKey,
		callbackURL: cfg.URWAYSCallbackURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// InitPaymentGateway creates the shared payment gateway instance
func InitPaymentGateway(cfg *config.Config) PaymentGateway {
	paymentGatewayInstance = NewURWAYSService(cfg)
	return paymentGatewayInstance
}

// GetPaymentGateway returns the shared payment gateway instance
func GetPaymentGateway() PaymentGateway {
	return paymentGatewayInstance
}

// SetPaymentGateway replaces the shared payment gateway instance (primarily for testing)
func SetPaymentGateway(gateway PaymentGateway) {
	paymentGatewayInstance = gateway
}

func (s *URWAYSService) configured() bool {
	return s.baseURL != "" && s.terminalID != "" && s.password != "" && s.merchantKey != ""
}

// InitiatePayment registers the order total with URWAYS and returns the hosted page URL
func (s *URWAYSService) InitiatePayment(ctx context.Context, order *models.CO2Order, customerEmail, clientIP string) (*PaymentSession, error) {
	if !s.configured() {
		return nil, ErrPaymentNotConfigured
	}

	amount := order.Total.StringFixed(2)
	reqBody := urwaysRequest{
		TrackID:       order.OrderNumber,
		TerminalID:    s.terminalID,
		CustomerEmail: customerEmail,
		Action:        urwaysActionSale,
		MerchantIP:    clientIP,
		Password:      s.password,
		Currency:      urwaysCurrency,
		Country:       urwaysCountry,
		Amount:        amount,
		RequestHash:   s.RequestHash(order.OrderNumber, amount),
		UDF1:          fmt.Sprintf("%d", order.ID),
		UDF2:          s.callbackURL,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment request: %w", err)
	}

	url := s.baseURL + "/URWAYPGService/transaction/jsonProcess/JSONrequest"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			utils.LogWarn("failed to close payment gateway response: %v", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("payment gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	var out urwaysResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode payment gateway response: %w", err)
	}
	if out.PayID == "" || out.TargetURL == "" {
		return nil, fmt.Errorf("%w: result=%s code=%s", ErrPaymentRejected, out.Result, out.ResponseCode)
	}

	utils.LogInfo("Initiated URWAYS payment %s for order %s (%s SAR)", out.PayID, order.OrderNumber, amount)
	return &PaymentSession{
		PaymentID:   out.PayID,
		RedirectURL: out.TargetURL + "?paymentid=" + out.PayID,
	}, nil
}

// RequestHash signs an outgoing payment request
func (s *URWAYSService) RequestHash(trackID, amount string) string {
	return sha256Hex(strings.Join([]string{trackID, s.terminalID, s.password, s.merchantKey, amount, urwaysCurrency}, "|"))
}

// ResponseHash is the signature URWAYS puts on a callback
func (s *URWAYSService) ResponseHash(tranID, responseCode, amount string) string {
	return sha256Hex(strings.Join([]string{tranID, s.merchantKey, responseCode, amount}, "|"))
}

// VerifyCallback checks the callback signature and maps the result to a payment status
func (s *URWAYSService) VerifyCallback(cb PaymentCallback) (*PaymentOutcome, error) {
	if !s.configured() {
		return nil, ErrPaymentNotConfigured
	}
	if cb.TrackID == "" || cb.TranID == "" || cb.ResponseHash == "" {
		return nil, ErrInvalidPaymentHash
	}

	expected := s.ResponseHash(cb.TranID, cb.ResponseCode, cb.Amount)
	if subtle.ConstantTimeCompare([]byte(strings.ToLower(cb.ResponseHash)), []byte(expected)) != 1 {
		return nil, ErrInvalidPaymentHash
	}

	status := models.PaymentFailed
	if cb.ResponseCode == urwaysSuccess && strings.EqualFold(cb.Result, "Successful") {
		status = models.PaymentCompleted
	}
	return &PaymentOutcome{
		OrderNumber:   cb.TrackID,
		TransactionID: cb.TranID,
		Status:        status,
		ResponseCode:  cb.ResponseCode,
		Amount:        cb.Amount,
	}, nil
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
