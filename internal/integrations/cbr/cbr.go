package cbr

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/vzolin/cashplan-service/internal/config"
)

// CBRClient handles integration with Central Bank of Russia
type CBRClient struct {
	url    string
	client *http.Client
	cb     *gobreaker.CircuitBreaker
	log    *logrus.Logger
}

// NewCBRClient initializes a new CBR client
func NewCBRClient(cfg *config.Config, log *logrus.Logger) *CBRClient {
	return &CBRClient{
		url: cfg.CBRURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "cbr",
			MaxRequests: 3,
			Interval:    30 * time.Second,
			Timeout:     10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 5 && failureRatio >= 0.6
			},
		}),
		log: log,
	}
}

// buildSOAPRequest creates a SOAP request for the daily currency quotes
func (c *CBRClient) buildSOAPRequest() string {
	onDate := time.Now().Format("2006-01-02")
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
			<soap12:Body>
				<GetCursOnDateXML xmlns="http://web.cbr.ru/">
					<On_date>%sT00:00:00</On_date>
				</GetCursOnDateXML>
			</soap12:Body>
		</soap12:Envelope>`, onDate)
}

// sendRequest sends SOAP request to CBR through the circuit breaker
func (c *CBRClient) sendRequest(soapRequest string) ([]byte, error) {
	body, err := c.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequest("POST", c.url, bytes.NewBuffer([]byte(soapRequest)))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %v", err)
		}

		req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
		req.Header.Set("SOAPAction", "http://web.cbr.ru/GetCursOnDateXML")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %v", err)
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}

	raw := body.([]byte)
	c.log.Debugf("CBR XML response: %s", string(raw))
	return raw, nil
}

// parseXMLResponse extracts the quote for the given ISO code from the XML.
// CBR quotes are per Vnom units of the foreign currency, so the rate per
// one unit is Vcurs / Vnom.
func (c *CBRClient) parseXMLResponse(rawBody []byte, code string) (float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return 0, fmt.Errorf("failed to parse XML: %v", err)
	}

	for _, el := range doc.FindElements("//ValuteCursOnDate") {
		chCode := el.FindElement("./VchCode")
		if chCode == nil || strings.TrimSpace(chCode.Text()) != code {
			continue
		}
		cursEl := el.FindElement("./Vcurs")
		nomEl := el.FindElement("./Vnom")
		if cursEl == nil || nomEl == nil {
			return 0, fmt.Errorf("incomplete quote for %s", code)
		}

		curs, err := parseDecimal(cursEl.Text())
		if err != nil {
			return 0, fmt.Errorf("failed to parse rate: %v", err)
		}
		nom, err := parseDecimal(nomEl.Text())
		if err != nil || nom == 0 {
			return 0, fmt.Errorf("failed to parse nominal: %v", err)
		}
		return curs / nom, nil
	}

	return 0, fmt.Errorf("no quote for %s found in XML", code)
}

func parseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	return strconv.ParseFloat(s, 64)
}

// GetCurrencyRate retrieves today's official rate for the given currency
// code (e.g. "CNY") in rubles per unit
func (c *CBRClient) GetCurrencyRate(code string) (float64, error) {
	soapRequest := c.buildSOAPRequest()
	body, err := c.sendRequest(soapRequest)
	if err != nil {
		return 0, err
	}

	rate, err := c.parseXMLResponse(body, code)
	if err != nil {
		return 0, err
	}

	c.log.Infof("Retrieved %s rate: %.4f RUB", code, rate)
	return rate, nil
}
