package universe

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alim08/price_cache/pkg/models"
)

// ContractTicker is an option ticker decomposed into its contract terms.
type ContractTicker struct {
	Root       string
	Expiration time.Time
	Strike     decimal.Decimal
	Type       models.OptionType
}

var (
	// OCC symbology: root, YYMMDD, C/P, strike in thousandths.
	// e.g. TSLA260227C00455000 = TSLA 2026-02-27 455.00 call.
	occPattern = regexp.MustCompile(`^([A-Z]{1,6})(\d{6})([CP])(\d{8})$`)

	// Broker '#' symbology: root, year letter, DD, YY, C/P, strike in
	// thousandths. The letter offsets the two-digit base year (A is the base
	// year itself, B the year after); expirations are January dates.
	// e.g. TSLA#A3026C475000 = TSLA 2026-01-30 475.00 call,
	//      TSLA#B3026C475000 = TSLA 2027-01-30 475.00 call.
	brokerPattern = regexp.MustCompile(`^([A-Z]{1,6})#([A-Z])(\d{2})(\d{2})([CP])(\d+)$`)

	rootPattern = regexp.MustCompile(`^[A-Z]+`)
)

// ParseContractTicker decodes an option ticker in OCC or the broker's
// '#'-coded format. Input is case-insensitive. The second return is false
// when the ticker matches neither format.
func ParseContractTicker(ticker string) (ContractTicker, bool) {
	s := strings.ToUpper(strings.TrimSpace(ticker))

	if m := occPattern.FindStringSubmatch(s); m != nil {
		exp, err := time.Parse("060102", m[2])
		if err != nil {
			return ContractTicker{}, false
		}
		return ContractTicker{
			Root:       m[1],
			Expiration: exp,
			Strike:     strikeFromThousandths(m[4]),
			Type:       optionTypeFromCode(m[3]),
		}, true
	}

	if m := brokerPattern.FindStringSubmatch(s); m != nil {
		yearOffset := int(m[2][0] - 'A')
		day, _ := strconv.Atoi(m[3])
		year, _ := strconv.Atoi(m[4])
		exp := time.Date(2000+year+yearOffset, time.January, day, 0, 0, 0, 0, time.UTC)
		// Reject rollover from impossible days.
		if exp.Day() != day {
			return ContractTicker{}, false
		}
		return ContractTicker{
			Root:       m[1],
			Expiration: exp,
			Strike:     strikeFromThousandths(m[6]),
			Type:       optionTypeFromCode(m[5]),
		}, true
	}

	return ContractTicker{}, false
}

// UnderlyingSymbol derives the equity symbol an option ticker prices
// against. Unparseable tickers fall back to their leading letter run.
func UnderlyingSymbol(ticker string) string {
	s := strings.ToUpper(strings.TrimSpace(ticker))
	if ct, ok := ParseContractTicker(s); ok {
		return ct.Root
	}
	if root := rootPattern.FindString(s); root != "" {
		return root
	}
	return s
}

func strikeFromThousandths(digits string) decimal.Decimal {
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return decimal.Zero
	}
	return decimal.New(n, -3)
}

func optionTypeFromCode(code string) models.OptionType {
	if code == "P" {
		return models.Put
	}
	return models.Call
}
