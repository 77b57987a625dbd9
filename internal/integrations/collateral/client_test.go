package collateral

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/redipay/bridge-service/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const balanceResponse = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
	<soap:Body>
		<GetBalanceResponse xmlns="http://ledger.redipay.io/">
			<GetBalanceResult>
				<available>1000</available>
				<protected>250</protected>
				<total>1250</total>
			</GetBalanceResult>
		</GetBalanceResponse>
	</soap:Body>
</soap:Envelope>`

const faultResponse = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
	<soap:Body>
		<soap:Fault>
			<soap:Reason>
				<soap:Text xml:lang="en">owner has no ledger entry</soap:Text>
			</soap:Reason>
		</soap:Fault>
	</soap:Body>
</soap:Envelope>`

const emptyResponse = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
	<soap:Body>
		<LockProtectedResponse xmlns="http://ledger.redipay.io/"/>
	</soap:Body>
</soap:Envelope>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewClient(&config.Config{CollateralURL: server.URL}, log)
}

func TestGetBalance(t *testing.T) {
	var gotAction, gotBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAction = r.Header.Get("SOAPAction")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Write([]byte(balanceResponse))
	})

	balance, err := client.GetBalance("alice@bank.test")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance.Available)
	assert.Equal(t, int64(250), balance.Protected)
	assert.Equal(t, int64(1250), balance.Total)

	assert.Equal(t, "http://ledger.redipay.io/GetBalance", gotAction)
	assert.Contains(t, gotBody, "<owner>alice@bank.test</owner>")
	assert.NotContains(t, gotBody, "<amount>")
}

func TestGetBalanceFault(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(faultResponse))
	})

	_, err := client.GetBalance("nobody@bank.test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner has no ledger entry")
}

func TestGetBalanceHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.GetBalance("alice@bank.test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 500")
}

func TestLockProtected(t *testing.T) {
	var gotAction, gotBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAction = r.Header.Get("SOAPAction")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Write([]byte(emptyResponse))
	})

	err := client.LockProtected("alice@bank.test", 100)
	require.NoError(t, err)
	assert.Equal(t, "http://ledger.redipay.io/LockProtected", gotAction)
	assert.Contains(t, gotBody, "<owner>alice@bank.test</owner>")
	assert.Contains(t, gotBody, "<amount>100</amount>")
	assert.True(t, strings.Contains(gotBody, "<LockProtected xmlns="))
}

func TestDebitProtectedFault(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(faultResponse))
	})

	err := client.DebitProtected("alice@bank.test", 50)
	assert.Error(t, err)
}
