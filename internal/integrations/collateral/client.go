package collateral

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/redipay/bridge-service/internal/config"
	"github.com/redipay/bridge-service/internal/models"
	"github.com/sirupsen/logrus"
)

const ns = "http://ledger.redipay.io/"

// Client handles integration with the external collateral ledger, a SOAP
// 1.2 service holding the available/protected balances per owner.
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new collateral ledger client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.CollateralURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// buildSOAPRequest creates a SOAP request for the named operation
func (c *Client) buildSOAPRequest(operation, owner string, amount *int64) string {
	amountField := ""
	if amount != nil {
		amountField = fmt.Sprintf("<amount>%d</amount>", *amount)
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
			<soap12:Body>
				<%s xmlns="%s">
					<owner>%s</owner>%s
				</%s>
			</soap12:Body>
		</soap12:Envelope>`, operation, ns, owner, amountField, operation)
}

// sendRequest sends a SOAP request to the ledger
func (c *Client) sendRequest(operation, soapRequest string) ([]byte, error) {
	req, err := http.NewRequest("POST", c.url, bytes.NewBuffer([]byte(soapRequest)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", ns+operation)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	c.log.Debugf("Ledger XML response for %s: %s", operation, string(body))

	return body, nil
}

// checkFault returns the fault reason if the response carries a SOAP fault
func (c *Client) checkFault(rawBody []byte) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return fmt.Errorf("failed to parse XML: %v", err)
	}
	if fault := doc.FindElement("//Fault"); fault != nil {
		reason := "unknown fault"
		if text := fault.FindElement(".//Text"); text != nil {
			reason = text.Text()
		}
		return fmt.Errorf("ledger fault: %s", reason)
	}
	return nil
}

// parseBalanceResponse extracts the three balance buckets from a
// GetBalance response
func (c *Client) parseBalanceResponse(rawBody []byte) (models.CollateralBalance, error) {
	var balance models.CollateralBalance

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return balance, fmt.Errorf("failed to parse XML: %v", err)
	}

	result := doc.FindElement("//GetBalanceResponse/GetBalanceResult")
	if result == nil {
		return balance, fmt.Errorf("no balance data found in XML")
	}

	fields := map[string]*int64{
		"available": &balance.Available,
		"protected": &balance.Protected,
		"total":     &balance.Total,
	}
	for name, dest := range fields {
		element := result.FindElement("./" + name)
		if element == nil {
			return balance, fmt.Errorf("%s element not found in XML", name)
		}
		value, err := strconv.ParseInt(element.Text(), 10, 64)
		if err != nil {
			return balance, fmt.Errorf("failed to parse %s: %v", name, err)
		}
		*dest = value
	}

	return balance, nil
}

// GetBalance retrieves the owner's current balance buckets
func (c *Client) GetBalance(owner string) (models.CollateralBalance, error) {
	soapRequest := c.buildSOAPRequest("GetBalance", owner, nil)
	body, err := c.sendRequest("GetBalance", soapRequest)
	if err != nil {
		return models.CollateralBalance{}, err
	}
	if err := c.checkFault(body); err != nil {
		return models.CollateralBalance{}, err
	}
	return c.parseBalanceResponse(body)
}

// mutate performs one of the four balance-changing operations
func (c *Client) mutate(operation, owner string, amount int64) error {
	soapRequest := c.buildSOAPRequest(operation, owner, &amount)
	body, err := c.sendRequest(operation, soapRequest)
	if err != nil {
		return err
	}
	if err := c.checkFault(body); err != nil {
		return err
	}
	c.log.Infof("Ledger %s: owner=%s amount=%d", operation, owner, amount)
	return nil
}

// LockProtected moves amount from the available into the protected bucket
func (c *Client) LockProtected(owner string, amount int64) error {
	return c.mutate("LockProtected", owner, amount)
}

// UnlockProtected reverses a prior lock, freeing amount back to available
func (c *Client) UnlockProtected(owner string, amount int64) error {
	return c.mutate("UnlockProtected", owner, amount)
}

// DebitAvailable permanently removes amount from the available bucket
func (c *Client) DebitAvailable(owner string, amount int64) error {
	return c.mutate("DebitAvailable", owner, amount)
}

// DebitProtected permanently removes amount from the protected bucket
func (c *Client) DebitProtected(owner string, amount int64) error {
	return c.mutate("DebitProtected", owner, amount)
}
