package daraja

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// API is the subset of the Daraja surface this service uses. Handlers and
// services depend on this interface so tests can substitute a fake.
type API interface {
	STKPush(ctx context.Context, req PushRequest) (*PushResponse, error)
	STKQuery(ctx context.Context, checkoutID string) (*QueryResponse, error)
}

// Client talks to the Safaricom Daraja API. Bearer tokens come from an
// oauth2.ReuseTokenSource, so a token is fetched on first use and replaced
// only when it nears expiry.
type Client struct {
	BaseURL     string
	ShortCode   string
	Passkey     string
	CallbackURL string

	client *http.Client
	tokens oauth2.TokenSource
	now    func() time.Time
}

type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
}

func NewClient(baseURL string, creds Credentials, shortCode, passkey, callbackURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://sandbox.safaricom.co.ke"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	hc := &http.Client{Timeout: timeout}
	c := &Client{
		BaseURL:     baseURL,
		ShortCode:   shortCode,
		Passkey:     passkey,
		CallbackURL: callbackURL,
		client:      hc,
		now:         time.Now,
	}
	c.tokens = oauth2.ReuseTokenSource(nil, &tokenSource{
		baseURL: baseURL,
		creds:   creds,
		client:  hc,
	})
	return c
}

// tokenSource fetches a bearer token from the Daraja credentials endpoint.
// Daraja uses a GET with basic auth rather than the standard form POST, and
// returns expires_in as a string, so the exchange is done by hand and only
// the caching/refresh is delegated to oauth2.ReuseTokenSource.
type tokenSource struct {
	baseURL string
	creds   Credentials
	client  *http.Client
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	req, err := http.NewRequest(http.MethodGet, s.baseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(s.creds.ConsumerKey, s.creds.ConsumerSecret)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("daraja token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("daraja token: %d", resp.StatusCode)
	}
	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("daraja token: %w", err)
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("daraja token: response missing access_token")
	}
	ttl := 3599 * time.Second
	if d, err := time.ParseDuration(out.ExpiresIn + "s"); err == nil && d > 0 {
		ttl = d
	}
	return &oauth2.Token{
		AccessToken: out.AccessToken,
		TokenType:   "Bearer",
		// refresh a minute early so in-flight calls never carry a stale token
		Expiry: time.Now().Add(ttl - time.Minute),
	}, nil
}

// password encodes (shortcode, passkey, timestamp) the way Daraja expects:
// base64 of the concatenation, with the timestamp formatted YYYYMMDDHHMMSS.
func (c *Client) password(t time.Time) (password, timestamp string) {
	timestamp = t.Format("20060102150405")
	password = base64.StdEncoding.EncodeToString([]byte(c.ShortCode + c.Passkey + timestamp))
	return password, timestamp
}

type PushRequest struct {
	Phone            string // 2547XXXXXXXX / 2541XXXXXXXX
	Amount           int64  // whole KES
	AccountReference string
	Description      string
}

type PushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type stkPushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPush asks Daraja to prompt the payer's device for payment confirmation.
// A 2xx body missing identifier fields is returned as-is; callers decide
// what an empty CheckoutRequestID means.
func (c *Client) STKPush(ctx context.Context, req PushRequest) (*PushResponse, error) {
	password, timestamp := c.password(c.now())
	payload := stkPushPayload{
		BusinessShortCode: c.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            req.Amount,
		PartyA:            req.Phone,
		PartyB:            c.ShortCode,
		PhoneNumber:       req.Phone,
		CallBackURL:       c.CallbackURL,
		AccountReference:  req.AccountReference,
		TransactionDesc:   req.Description,
	}
	var out PushResponse
	if err := c.post(ctx, "/mpesa/stkpush/v1/processrequest", payload, &out); err != nil {
		return nil, err
	}
	log.Printf("[DARAJA] STK push checkout_request_id=%s merchant_request_id=%s response_code=%s",
		out.CheckoutRequestID, out.MerchantRequestID, out.ResponseCode)
	return &out, nil
}

type QueryResponse struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResultCode          string `json:"ResultCode"`
	ResultDesc          string `json:"ResultDesc"`

	// Processing is set when Daraja answers "transaction is being processed"
	// instead of a result; the push is still live on the payer's device.
	Processing bool `json:"-"`
}

type stkQueryPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

// STKQuery fetches the point-in-time result for a checkout identifier.
func (c *Client) STKQuery(ctx context.Context, checkoutID string) (*QueryResponse, error) {
	password, timestamp := c.password(c.now())
	payload := stkQueryPayload{
		BusinessShortCode: c.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		CheckoutRequestID: checkoutID,
	}
	tok, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}
	body, _ := json.Marshal(payload)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/mpesa/stkpushquery/v1/query", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Content-Type", "application/json")
	apiReq.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	resp, err := c.client.Do(apiReq)
	if err != nil {
		return nil, fmt.Errorf("daraja query: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		// Daraja answers 500/errorCode 500.001.1001 while the push is still
		// pending on the handset; that is a result, not a failure.
		var apiErr struct {
			ErrorCode    string `json:"errorCode"`
			ErrorMessage string `json:"errorMessage"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.ErrorCode == ErrCodeProcessing {
			return &QueryResponse{CheckoutRequestID: checkoutID, Processing: true}, nil
		}
		return nil, fmt.Errorf("daraja query: %d %s", resp.StatusCode, string(respBody))
	}
	var out QueryResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("daraja query: %w", err)
	}
	log.Printf("[DARAJA] STK query checkout_request_id=%s result_code=%s", checkoutID, out.ResultCode)
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	tok, err := c.tokens.Token()
	if err != nil {
		return err
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("daraja %s: %w", path, err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daraja %s: %d %s", path, resp.StatusCode, string(respBody))
	}
	return json.Unmarshal(respBody, out)
}
